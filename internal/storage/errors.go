package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound means the requested key has no content.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNotSupported means the backend cannot perform the operation
	// (streaming from S3, presigning on the local filesystem).
	ErrNotSupported = errors.New("operation not supported by storage backend")
)

// StorageError wraps backend I/O failures so callers can tell storage
// trouble apart from catalog errors.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}
