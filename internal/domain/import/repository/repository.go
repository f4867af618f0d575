// Package repository persists import logs and imported transactions.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportLogStore records commit attempts.
type ImportLogStore interface {
	CreateLog(ctx context.Context, entry NewImportLog) (*ImportLog, error)
	// UpdateLog applies a terminal transition. It fails with ErrLogFinalized
	// when the log is not PROCESSING.
	UpdateLog(ctx context.Context, id uuid.UUID, update LogUpdate) error
	GetLog(ctx context.Context, ownerID string, id uuid.UUID) (*ImportLog, error)
	ListLogs(ctx context.Context, ownerID string, limit, offset int) ([]ImportLog, error)
	// FailStaleLogs marks logs still PROCESSING since before cutoff as FAILED.
	FailStaleLogs(ctx context.Context, cutoff time.Time, message string) (int64, error)
}

// TransactionStore reads fingerprints and bulk-inserts imported rows.
type TransactionStore interface {
	// FindFingerprints returns the subset of fingerprints already stored for
	// the owner. It never writes.
	FindFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]struct{}, error)
	// InsertMany writes the batch's records and completes its log in one
	// transaction, and returns how many records were inserted. Records whose
	// (owner, fingerprint) already exists are skipped without error and
	// counted as skipped on the log. Nothing is written when the log is no
	// longer PROCESSING.
	InsertMany(ctx context.Context, batch Batch) (int, error)
}

// Batch is the new rows of one import. Duplicates counts the rows the dedup
// pass already excluded.
type Batch struct {
	LogID      uuid.UUID
	Records    []StoredTransaction
	Duplicates int
}

// completion is the COMPLETED update for a batch once the store knows how
// many records it inserted.
func (b Batch) completion(inserted int) LogUpdate {
	return Completed(inserted, b.Duplicates+len(b.Records)-inserted)
}

// CategoryStore lists the categories an owner can assign.
type CategoryStore interface {
	ListCategories(ctx context.Context, ownerID string) ([]Category, error)
}

// Store is everything an import needs from persistence.
type Store interface {
	ImportLogStore
	TransactionStore
	CategoryStore
}

// maxListLimit caps page sizes of ListLogs.
const maxListLimit = 100

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
