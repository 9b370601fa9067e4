package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxHashBytes caps how much an external installer may weigh
// before we refuse to hash it.
const DefaultMaxHashBytes = 10 << 30 // 10 GiB

// DefaultHashTimeout bounds the whole fetch-and-hash round trip.
const DefaultHashTimeout = 15 * time.Second

var (
	// ErrInsecureURL means the installer URL does not use https.
	ErrInsecureURL = errors.New("installer URL must use https")

	// ErrContentTooLarge means the remote content exceeds the hash cap.
	ErrContentTooLarge = errors.New("content length exceeds allowed limit")
)

// URLHasher fetches externally hosted installers and hashes them without
// persisting anything. The size cap is enforced twice: against the
// declared Content-Length and against the streamed total, since servers
// may lie or omit the header.
type URLHasher struct {
	Client   *http.Client
	MaxBytes int64

	// allowInsecure disables the https requirement. Tests only.
	allowInsecure bool
}

func NewURLHasher(maxBytes int64) *URLHasher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxHashBytes
	}
	return &URLHasher{
		Client:   &http.Client{Timeout: DefaultHashTimeout},
		MaxBytes: maxBytes,
	}
}

// Hash downloads rawURL in chunks and returns the lowercase hex SHA-256
// of the body.
func (h *URLHasher) Hash(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse installer URL: %w", err)
	}
	if u.Scheme != "https" && !h.allowInsecure {
		return "", ErrInsecureURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", storageErr("hash-url", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", storageErr("hash-url", rawURL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if resp.ContentLength > h.MaxBytes {
		return "", ErrContentTooLarge
	}

	hasher := sha256.New()
	var total int64
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > h.MaxBytes {
				return "", ErrContentTooLarge
			}
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", storageErr("hash-url", rawURL, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
