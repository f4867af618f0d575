package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLogNotFound       = errors.New("import log not found")
	ErrLogFinalized      = errors.New("import log is no longer processing")
	ErrInvalidTransition = errors.New("invalid import log transition")
)

// LogStatus is the lifecycle state of an import log.
type LogStatus string

const (
	StatusProcessing LogStatus = "PROCESSING"
	StatusCompleted  LogStatus = "COMPLETED"
	StatusFailed     LogStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s LogStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo allows only PROCESSING -> COMPLETED and
// PROCESSING -> FAILED.
func (s LogStatus) CanTransitionTo(next LogStatus) bool {
	return s == StatusProcessing && next.IsTerminal()
}

// ImportLog is the audit record of one commit attempt.
type ImportLog struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       string     `json:"owner_id"`
	FileName      string     `json:"file_name"`
	ArchiveURI    *string    `json:"archive_uri,omitempty"`
	TotalRows     int        `json:"total_rows"`
	ImportedCount int        `json:"imported_count"`
	SkippedCount  int        `json:"skipped_count"`
	Status        LogStatus  `json:"status"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// NewImportLog is the input for creating a log in PROCESSING state.
type NewImportLog struct {
	OwnerID    string
	FileName   string
	ArchiveURI string
	TotalRows  int
}

// LogUpdate moves a PROCESSING log to a terminal state.
type LogUpdate struct {
	Status        LogStatus
	ImportedCount int
	SkippedCount  int
	ErrorMessage  *string
}

// Completed builds the update for a successful import.
func Completed(imported, skipped int) LogUpdate {
	return LogUpdate{Status: StatusCompleted, ImportedCount: imported, SkippedCount: skipped}
}

// Failed builds the update for a failed import. The error text is never
// empty.
func Failed(cause error) LogUpdate {
	msg := "unknown error"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return LogUpdate{Status: StatusFailed, ErrorMessage: &msg}
}

// Validate checks the update against the state machine.
func (u LogUpdate) Validate() error {
	if !StatusProcessing.CanTransitionTo(u.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, StatusProcessing, u.Status)
	}
	if u.ImportedCount < 0 || u.SkippedCount < 0 {
		return fmt.Errorf("%w: negative counts", ErrInvalidTransition)
	}
	if u.Status == StatusFailed && (u.ErrorMessage == nil || *u.ErrorMessage == "") {
		return fmt.Errorf("%w: failed log needs an error message", ErrInvalidTransition)
	}
	return nil
}

// Apply returns a copy of l with the update applied.
func (l ImportLog) Apply(u LogUpdate, at time.Time) (ImportLog, error) {
	if !l.Status.CanTransitionTo(u.Status) {
		return l, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, u.Status)
	}
	if err := u.Validate(); err != nil {
		return l, err
	}
	l.Status = u.Status
	l.ImportedCount = u.ImportedCount
	l.SkippedCount = u.SkippedCount
	l.ErrorMessage = u.ErrorMessage
	l.FinishedAt = &at
	return l, nil
}

// finish applies u to a log read inside the store's transaction. A log that
// already reached a terminal state reports ErrLogFinalized.
func finish(l *ImportLog, u LogUpdate, at time.Time) (ImportLog, error) {
	if l.Status != StatusProcessing {
		return *l, fmt.Errorf("%w: %s", ErrLogFinalized, l.ID)
	}
	return l.Apply(u, at)
}

// Kind mirrors the transaction kind stored with each row.
type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

// StoredTransaction is a row of the transactions table written by an import.
type StoredTransaction struct {
	ID           uuid.UUID
	OwnerID      string
	AccountID    uuid.UUID
	CategoryID   *uuid.UUID
	PostedAt     time.Time
	Description  string
	MerchantName string
	AmountMinor  int64
	CurrencyCode string
	Kind         Kind
	Fingerprint  string
	ImportLogID  uuid.UUID
}

// Category is an owner's transaction category, used to resolve the optional
// category column.
type Category struct {
	ID   uuid.UUID
	Name string
}
