// Package service orchestrates statement imports: validation, parsing,
// mapping inference, normalization, deduplication and the audited bulk
// commit.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	"github.com/FACorreiaa/echo-import/internal/domain/import/validator"
	"github.com/FACorreiaa/echo-import/pkg/metrics"
	"github.com/FACorreiaa/echo-import/pkg/money"
	"github.com/FACorreiaa/echo-import/pkg/storage"
)

var (
	// ErrInvalidRequest is returned for a missing owner or account.
	ErrInvalidRequest = errors.New("invalid import request")
	// ErrInvalidMapping is returned when a mapping misses a required field
	// or names a header the file does not have.
	ErrInvalidMapping = errors.New("invalid column mapping")
	// ErrPersistence wraps storage failures during a commit.
	ErrPersistence = errors.New("import persistence failed")
)

// TracerName names the spans of this package.
const TracerName = "github.com/FACorreiaa/echo-import/internal/domain/import/service"

// Options tunes the pipeline.
type Options struct {
	MaxFileBytes   int64
	PreviewRows    int
	SignConvention normalizer.SignConvention
	Currency       string
}

// DefaultOptions matches the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileBytes:   validator.DefaultMaxBytes,
		PreviewRows:    10,
		SignConvention: normalizer.NegativeIsIncome,
		Currency:       money.EUR,
	}
}

// ImportService orchestrates preview and commit of statement files.
type ImportService struct {
	store      repository.Store
	validator  *validator.Validator
	normalizer *normalizer.Normalizer
	merchants  *normalizer.MerchantNamer
	archive    storage.Storage // optional
	metrics    *metrics.ImportMetrics
	tracer     trace.Tracer
	opts       Options
	logger     *slog.Logger
}

// NewImportService creates a new import service with default options.
func NewImportService(store repository.Store, logger *slog.Logger) *ImportService {
	opts := DefaultOptions()
	return &ImportService{
		store:      store,
		validator:  validator.New(opts.MaxFileBytes),
		normalizer: normalizer.New(opts.SignConvention),
		merchants:  normalizer.NewMerchantNamer(),
		tracer:     otel.Tracer(TracerName),
		opts:       opts,
		logger:     logger,
	}
}

// WithOptions replaces the pipeline options. Zero fields keep their defaults.
func (s *ImportService) WithOptions(opts Options) *ImportService {
	defaults := DefaultOptions()
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaults.MaxFileBytes
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = defaults.PreviewRows
	}
	if opts.SignConvention == "" {
		opts.SignConvention = defaults.SignConvention
	}
	if opts.Currency == "" {
		opts.Currency = defaults.Currency
	}
	s.opts = opts
	s.validator = validator.New(opts.MaxFileBytes)
	s.normalizer = normalizer.New(opts.SignConvention)
	return s
}

// WithStorage archives every committed file in st.
func (s *ImportService) WithStorage(st storage.Storage) *ImportService {
	s.archive = st
	return s
}

// WithMetrics records commit metrics.
func (s *ImportService) WithMetrics(m *metrics.ImportMetrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer overrides the global tracer.
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// WithMerchantNamer overrides the merchant name cleaner.
func (s *ImportService) WithMerchantNamer(n *normalizer.MerchantNamer) *ImportService {
	s.merchants = n
	return s
}

// Options returns the effective options.
func (s *ImportService) Options() Options {
	return s.opts
}

// GetLog returns one of the owner's import logs.
func (s *ImportService) GetLog(ctx context.Context, ownerID string, id uuid.UUID) (*repository.ImportLog, error) {
	if ownerID == "" {
		return nil, ErrInvalidRequest
	}
	return s.store.GetLog(ctx, ownerID, id)
}

// ListLogs returns the owner's import history, newest first.
func (s *ImportService) ListLogs(ctx context.Context, ownerID string, limit, offset int) ([]repository.ImportLog, error) {
	if ownerID == "" {
		return nil, ErrInvalidRequest
	}
	return s.store.ListLogs(ctx, ownerID, limit, offset)
}
