// Package storage is the content store: it maps catalog coordinates to
// installer bytes on the local filesystem or an S3-compatible bucket,
// computing SHA-256 hashes as content is written.
package storage

import (
	"context"
	"io"
	"strings"
)

// Backend kinds returned by Store.Kind.
const (
	KindLocal = "local"
	KindS3    = "s3"
)

// URLExpiry bounds the lifetime of presigned object URLs.
const URLExpiry = 3600 // seconds

// Store holds installer content addressed by object key.
type Store interface {
	Kind() string

	// Put streams r into the object at key and returns the lowercase
	// hex SHA-256 of the written bytes together with their count.
	Put(ctx context.Context, key string, r io.Reader) (sha256hex string, size int64, err error)

	// Open returns a seekable handle for streaming the object. Only the
	// local backend supports it; S3 callers use PresignGet instead.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// PresignGet returns a time-limited download URL for the object,
	// forcing an attachment disposition with the given filename. Only
	// the S3 backend supports it.
	PresignGet(ctx context.Context, key, filename string) (string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// SafeName replaces every character outside [A-Za-z0-9._+-] with an
// underscore so user-supplied names cannot escape the key space.
func SafeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '+', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ObjectKey builds the canonical storage key for an installer. Every
// segment is safe-named so the key is deterministic for a given tuple.
func ObjectKey(publisher, identifier, version, architecture, fileName string) string {
	return strings.Join([]string{
		"packages",
		SafeName(publisher),
		SafeName(identifier),
		SafeName(version),
		SafeName(architecture),
		SafeName(fileName),
	}, "/")
}

// StoredFileName derives the file name an uploaded installer is kept
// under: the scope label plus the upload's extension, e.g. "machine.msi".
func StoredFileName(scope, uploadName string) string {
	ext := ""
	if i := strings.LastIndex(uploadName, "."); i >= 0 {
		ext = uploadName[i+1:]
	}
	if ext == "" {
		return SafeName(scope)
	}
	return SafeName(scope) + "." + SafeName(ext)
}
