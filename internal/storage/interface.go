package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// ObjectStorage stores gemstone media (photos, videos, certificates).
type ObjectStorage interface {
	// EnsureBucket creates the bucket when the backend allows it
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// MediaKey builds the object key for a gemstone media file:
// gemstones/<serial>/<index>.<ext>, with the serial lowercased and slashes removed.
func MediaKey(serial string, index int, ext string) string {
	serial = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(serial), "/", "-"))
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return path.Join("gemstones", serial, fmt.Sprintf("%02d.%s", index, ext))
}
