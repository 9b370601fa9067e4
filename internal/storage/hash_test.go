package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlsHasher(ts *httptest.Server, maxBytes int64) *URLHasher {
	h := NewURLHasher(maxBytes)
	h.Client = ts.Client()
	return h
}

func TestURLHasherHash(t *testing.T) {
	body := []byte("remote installer payload")
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	sha, err := tlsHasher(ts, 0).Hash(context.Background(), ts.URL)
	require.NoError(t, err)

	sum := sha256.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), sha)
}

func TestURLHasherRejectsHTTP(t *testing.T) {
	_, err := NewURLHasher(0).Hash(context.Background(), "http://example.com/setup.msi")
	assert.ErrorIs(t, err, ErrInsecureURL)
}

func TestURLHasherContentLengthCap(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer ts.Close()

	_, err := tlsHasher(ts, 16).Hash(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func TestURLHasherStreamedCap(t *testing.T) {
	// Chunked response: no Content-Length to check up front, so the cap
	// must trip while streaming.
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		for i := 0; i < 8; i++ {
			_, _ = w.Write(make([]byte, 1024))
			fl.Flush()
		}
	}))
	defer ts.Close()

	_, err := tlsHasher(ts, 2048).Hash(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func TestURLHasherBadStatus(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := tlsHasher(ts, 0).Hash(context.Background(), ts.URL)
	require.Error(t, err)
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
}
