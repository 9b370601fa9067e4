package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps installer content under a root directory, one file
// per object key.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (l *LocalStore) Kind() string { return KindLocal }

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Put streams r to disk, hashing as it writes so multi-gigabyte
// installers never need to fit in memory.
func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader) (string, int64, error) {
	dst := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, storageErr("put", key, err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", 0, storageErr("put", key, err)
	}
	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", 0, storageErr("put", key, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

func (l *LocalStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, storageErr("open", key, err)
	}
	return f, nil
}

func (l *LocalStore) PresignGet(ctx context.Context, key, filename string) (string, error) {
	return "", ErrNotSupported
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr("delete", key, err)
	}
	return nil
}
