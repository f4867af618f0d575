// Package validator rejects uploads before any parsing work is done.
package validator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
)

// DefaultMaxBytes is the upload ceiling used when none is configured (5 MiB).
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Report is the outcome of a successful validation.
type Report struct {
	Format upload.Format
	// ContentType is the declared type, or a sniffed one when none was sent.
	// It is informational only.
	ContentType string
}

// Validator checks size and extension of uploads.
type Validator struct {
	maxBytes int64
}

// New creates a validator with the given ceiling. Non-positive values fall
// back to DefaultMaxBytes.
func New(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{maxBytes: maxBytes}
}

// MaxBytes returns the configured ceiling.
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate accepts a file only if it is within the size ceiling and carries a
// supported extension. The content type never causes a rejection.
func (v *Validator) Validate(f upload.File) (*Report, error) {
	if size := f.EffectiveSize(); size > v.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, size, v.maxBytes)
	}

	format := f.Format()
	if format == upload.FormatUnknown {
		return nil, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat, f.Name,
			strings.Join(upload.SupportedExtensions(), ", "))
	}

	contentType := strings.TrimSpace(f.ContentType)
	if contentType == "" && len(f.Data) > 0 {
		contentType = http.DetectContentType(f.Data)
	}

	return &Report{Format: format, ContentType: contentType}, nil
}
