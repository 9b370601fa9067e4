package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutOpenRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	content := "fake installer bytes"
	key := ObjectKey("Contoso", "Contoso.App", "1.0.0", "x64", "machine.msi")

	sha, size, err := store.Put(context.Background(), key, strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), sha)

	f, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.Open(context.Background(), "packages/nope/missing.msi")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	key := "packages/p/i/1.0/x64/user.exe"

	_, _, err := store.Put(context.Background(), key, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = store.Open(context.Background(), key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(context.Background(), key))
}

func TestLocalStorePresignUnsupported(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.PresignGet(context.Background(), "packages/x", "x.msi")
	assert.ErrorIs(t, err, ErrNotSupported)
}
