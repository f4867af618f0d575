// Package storage archives uploaded statement files on the local
// filesystem or in Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("stored object not found")
	ErrInvalidURI = errors.New("invalid storage uri")
)

// Object describes an archived file.
type Object struct {
	Key         string    `json:"key"`
	URI         string    `json:"uri"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Put stores the content under a fresh key in the owner's namespace.
	Put(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (*Object, error)
	// Open returns a reader for an object previously returned by Put.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, uri string) error
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
	StorageTypeGCS   StorageType = "gcs"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
	GCSBucket string
}

// New creates the configured backend. StorageTypeNone returns a nil Storage,
// which disables archiving.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeNone, "":
		return nil, nil
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeGCS:
		return NewGCSStorage(ctx, cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// objectKey builds "<owner>/<yyyy>/<mm>/<id>_<name>".
func objectKey(ownerID string, id uuid.UUID, filename string, at time.Time) string {
	return path.Join(
		sanitizeFilename(ownerID),
		at.Format("2006"),
		at.Format("01"),
		fmt.Sprintf("%s_%s", id.String()[:8], sanitizeFilename(filename)),
	)
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(strings.TrimSpace(name))
	if name == "" {
		return "unnamed"
	}
	return name
}
