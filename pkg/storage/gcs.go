package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const gcsScheme = "gs://"

// GCSStorage implements Storage on a Google Cloud Storage bucket. It uses
// Application Default Credentials.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage creates a client for bucket.
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

// Put uploads the content as a new object.
func (s *GCSStorage) Put(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (*Object, error) {
	now := time.Now().UTC()
	key := objectKey(ownerID, uuid.New(), filename, now)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"owner_id": ownerID, "file_name": filename}

	size, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	return &Object{
		Key:         key,
		URI:         gcsScheme + s.bucket + "/" + key,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   now,
	}, nil
}

// Open returns a reader for a gs:// uri in this bucket.
func (s *GCSStorage) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	key, err := s.objectKey(uri)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", uri, err)
	}
	return rc, nil
}

// Delete removes an object.
func (s *GCSStorage) Delete(ctx context.Context, uri string) error {
	key, err := s.objectKey(uri)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", uri, err)
	}
	return nil
}

// Close releases the client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) objectKey(uri string) (string, error) {
	bucket, key, err := parseGCSURI(uri)
	if err != nil {
		return "", err
	}
	if bucket != s.bucket {
		return "", fmt.Errorf("%w: %s is not in bucket %s", ErrInvalidURI, uri, s.bucket)
	}
	return key, nil
}

// parseGCSURI splits gs://bucket/path/to/object.
func parseGCSURI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return parts[0], parts[1], nil
}
