package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/echo-import/internal/domain/import/dedup"
	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
	"github.com/FACorreiaa/echo-import/pkg/money"
)

// CommitRequest is a confirmed import. Mapping fields left empty are filled
// from the inferred suggestion.
type CommitRequest struct {
	File              upload.File
	AccountID         uuid.UUID
	DefaultCategoryID *uuid.UUID
	Mapping           normalizer.Mapping
}

// CommitResult summarizes a completed import. Imported + Skipped + Dropped
// equals TotalRows.
type CommitResult struct {
	LogID     uuid.UUID                     `json:"log_id"`
	TotalRows int                           `json:"total_rows"`
	Imported  int                           `json:"imported"`
	Skipped   int                           `json:"skipped"`
	Dropped   int                           `json:"dropped"`
	DroppedBy map[normalizer.DropReason]int `json:"dropped_by,omitempty"`
	Mapping   normalizer.Mapping            `json:"mapping"`
}

// Commit imports the file for the owner.
//
// Validation, parse and mapping errors are returned before any log exists.
// Once the PROCESSING log is created, every persistence failure moves it to
// FAILED before the error, wrapped in ErrPersistence, is returned.
func (s *ImportService) Commit(ctx context.Context, ownerID string, req CommitRequest) (*CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("import.file_name", req.File.Name),
		attribute.String("import.account_id", req.AccountID.String()),
	)

	result, err := s.commit(ctx, ownerID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("import.imported", result.Imported),
		attribute.Int("import.skipped", result.Skipped),
		attribute.Int("import.dropped", result.Dropped),
	)
	return result, nil
}

func (s *ImportService) commit(ctx context.Context, ownerID string, req CommitRequest) (*CommitResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidRequest)
	}
	if req.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidRequest)
	}
	currency, err := money.Currency(s.opts.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	normalized, mapping, err := s.Normalize(req.File, req.Mapping)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	logger := s.logger.With(slog.String("owner_id", ownerID), slog.String("file_name", req.File.Name))

	importLog, err := s.store.CreateLog(ctx, repository.NewImportLog{
		OwnerID:    ownerID,
		FileName:   req.File.Name,
		ArchiveURI: s.archiveFile(ctx, ownerID, req.File, logger),
		TotalRows:  normalized.TotalRows,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	logger = logger.With(slog.String("log_id", importLog.ID.String()))

	fail := func(cause error) (*CommitResult, error) {
		// The log must record the failure even when the caller has gone away.
		if err := s.store.UpdateLog(context.WithoutCancel(ctx), importLog.ID, repository.Failed(cause)); err != nil {
			logger.Error("failed to mark import log as failed", slog.Any("error", err), slog.Any("cause", cause))
		}
		logger.Error("import failed", slog.Any("error", cause))
		s.metrics.ObserveCommit(string(repository.StatusFailed), 0, 0, normalized.DroppedCount(), time.Since(started))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, cause)
	}

	partition, err := dedup.Split(ctx, s.store, ownerID, normalized.Transactions)
	if err != nil {
		return fail(err)
	}

	records, err := s.buildRecords(ctx, ownerID, importLog.ID, req, mapping, currency.Code, partition.New)
	if err != nil {
		return fail(err)
	}

	// The rows and the COMPLETED log are written together, so a commit that
	// fails or is cancelled here leaves no rows behind.
	inserted, err := s.store.InsertMany(ctx, repository.Batch{
		LogID:      importLog.ID,
		Records:    records,
		Duplicates: len(partition.Duplicates),
	})
	if err != nil {
		return fail(err)
	}

	// Rows the store refused were inserted by a concurrent import after the
	// dedup check.
	skipped := len(partition.Duplicates) + (len(records) - inserted)

	result := &CommitResult{
		LogID:     importLog.ID,
		TotalRows: normalized.TotalRows,
		Imported:  inserted,
		Skipped:   skipped,
		Dropped:   normalized.DroppedCount(),
		DroppedBy: normalized.Dropped,
		Mapping:   mapping,
	}
	s.metrics.ObserveCommit(string(repository.StatusCompleted), result.Imported, result.Skipped, result.Dropped, time.Since(started))
	logger.Info("import completed",
		slog.Int("total_rows", result.TotalRows),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("dropped", result.Dropped))
	if result.Dropped > 0 {
		logger.Debug("rows dropped during normalization", slog.Any("reasons", result.DroppedBy))
	}
	return result, nil
}

// buildRecords turns the new transactions into stored rows.
func (s *ImportService) buildRecords(
	ctx context.Context,
	ownerID string,
	logID uuid.UUID,
	req CommitRequest,
	mapping normalizer.Mapping,
	currency string,
	txs []normalizer.Transaction,
) ([]repository.StoredTransaction, error) {
	var resolver *categoryResolver
	if mapping.Category != "" && len(txs) > 0 {
		categories, err := s.store.ListCategories(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		resolver = newCategoryResolver(categories)
		defer resolver.Close()
	}

	records := make([]repository.StoredTransaction, 0, len(txs))
	for _, tx := range txs {
		amount, err := money.NewFromDecimal(tx.Amount, currency)
		if err != nil {
			return nil, err
		}

		categoryID := req.DefaultCategoryID
		if resolver != nil {
			if id := resolver.Resolve(tx.CategoryName); id != nil {
				categoryID = id
			}
		}

		var merchant string
		if s.merchants != nil {
			merchant = s.merchants.Name(tx.Description)
		}

		records = append(records, repository.StoredTransaction{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			AccountID:    req.AccountID,
			CategoryID:   categoryID,
			PostedAt:     tx.Date,
			Description:  tx.Description,
			MerchantName: merchant,
			AmountMinor:  amount.Amount(),
			CurrencyCode: amount.CurrencyCode(),
			Kind:         repository.Kind(tx.Kind),
			Fingerprint:  tx.Fingerprint,
			ImportLogID:  logID,
		})
	}
	return records, nil
}

// archiveFile stores the upload when archiving is enabled. Failures are
// logged and the import continues without an archive.
func (s *ImportService) archiveFile(ctx context.Context, ownerID string, f upload.File, logger *slog.Logger) string {
	if s.archive == nil {
		return ""
	}
	obj, err := s.archive.Put(ctx, ownerID, f.Name, f.ContentType, bytes.NewReader(f.Data))
	if err != nil {
		logger.Warn("failed to archive statement", slog.Any("error", err))
		return ""
	}
	return obj.URI
}
