package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const fileScheme = "file://"

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: abs}, nil
}

// Put writes the content to a new file below the base path.
func (s *LocalStorage) Put(_ context.Context, ownerID, filename, contentType string, r io.Reader) (*Object, error) {
	now := time.Now().UTC()
	key := objectKey(ownerID, uuid.New(), filename, now)
	filePath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create owner directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &Object{
		Key:         key,
		URI:         fileScheme + filepath.ToSlash(filePath),
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   now,
	}, nil
}

// Open opens an archived file.
func (s *LocalStorage) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	filePath, err := s.resolve(uri)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes an archived file.
func (s *LocalStorage) Delete(_ context.Context, uri string) error {
	filePath, err := s.resolve(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a file:// uri to a path, refusing anything outside the base
// path.
func (s *LocalStorage) resolve(uri string) (string, error) {
	if !strings.HasPrefix(uri, fileScheme) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	filePath := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(uri, fileScheme)))
	rel, err := filepath.Rel(s.basePath, filePath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return filePath, nil
}
