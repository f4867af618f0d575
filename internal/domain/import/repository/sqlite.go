package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sqliteMaxVars keeps IN lists under SQLite's host parameter limit.
const sqliteMaxVars = 500

// SQLiteStore implements Store on an embedded SQLite database. It backs the
// command line importer.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over an open database with migrations applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ Store = (*SQLiteStore)(nil)

type sqliteScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLog(row sqliteScanner) (*ImportLog, error) {
	var (
		l          ImportLog
		id, status string
		archiveURI sql.NullString
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)
	err := row.Scan(&id, &l.OwnerID, &l.FileName, &archiveURI, &l.TotalRows, &l.ImportedCount,
		&l.SkippedCount, &status, &errMsg, &l.CreatedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if l.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid log id %q: %w", id, err)
	}
	l.Status = LogStatus(status)
	if archiveURI.Valid {
		l.ArchiveURI = &archiveURI.String
	}
	if errMsg.Valid {
		l.ErrorMessage = &errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		l.FinishedAt = &t
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

// CreateLog inserts a PROCESSING log.
func (s *SQLiteStore) CreateLog(ctx context.Context, entry NewImportLog) (*ImportLog, error) {
	l := &ImportLog{
		ID:        uuid.New(),
		OwnerID:   entry.OwnerID,
		FileName:  entry.FileName,
		TotalRows: entry.TotalRows,
		Status:    StatusProcessing,
		CreatedAt: s.now(),
	}
	if entry.ArchiveURI != "" {
		l.ArchiveURI = &entry.ArchiveURI
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (id, user_id, file_name, archive_uri, total_rows, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.OwnerID, l.FileName, nullString(entry.ArchiveURI), l.TotalRows, string(l.Status), l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create import log: %w", err)
	}
	return l, nil
}

// UpdateLog applies a terminal transition to a PROCESSING log.
func (s *SQLiteStore) UpdateLog(ctx context.Context, id uuid.UUID, update LogUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	l, err := readSQLiteLog(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.finishLog(ctx, tx, l, update); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import log: %w", err)
	}
	return nil
}

func readSQLiteLog(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*ImportLog, error) {
	l, err := scanSQLiteLog(tx.QueryRowContext(ctx,
		`SELECT `+sqliteLogColumns+` FROM import_logs WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to read import log: %w", err)
	}
	return l, nil
}

// finishLog writes the terminal state of a log read in the same transaction.
// The status guard catches a reaper that won the race for the write lock.
func (s *SQLiteStore) finishLog(ctx context.Context, tx *sql.Tx, l *ImportLog, update LogUpdate) error {
	next, err := finish(l, update, s.now())
	if err != nil {
		return err
	}

	var errMsg sql.NullString
	if next.ErrorMessage != nil {
		errMsg = sql.NullString{String: *next.ErrorMessage, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE import_logs
		SET status = ?, imported_count = ?, skipped_count = ?, error_message = ?, finished_at = ?
		WHERE id = ? AND status = 'PROCESSING'`,
		string(next.Status), next.ImportedCount, next.SkippedCount, errMsg, *next.FinishedAt, l.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLogFinalized, l.ID)
	}
	return nil
}

const sqliteLogColumns = `id, user_id, file_name, archive_uri, total_rows, imported_count,
	skipped_count, status, error_message, created_at, finished_at`

// GetLog returns one of the owner's logs.
func (s *SQLiteStore) GetLog(ctx context.Context, ownerID string, id uuid.UUID) (*ImportLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteLogColumns+` FROM import_logs WHERE id = ? AND user_id = ?`, id.String(), ownerID)
	l, err := scanSQLiteLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return l, nil
}

// ListLogs returns the owner's logs, newest first.
func (s *SQLiteStore) ListLogs(ctx context.Context, ownerID string, limit, offset int) ([]ImportLog, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteLogColumns+`
		FROM import_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		l, err := scanSQLiteLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", err)
	}
	return logs, nil
}

// FailStaleLogs fails logs left PROCESSING by an interrupted commit.
func (s *SQLiteStore) FailStaleLogs(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_logs
		SET status = 'FAILED', error_message = ?, finished_at = ?
		WHERE status = 'PROCESSING' AND created_at < ?`, message, s.now(), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale import logs: %w", err)
	}
	return res.RowsAffected()
}

// FindFingerprints returns which of the fingerprints the owner already has.
func (s *SQLiteStore) FindFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for start := 0; start < len(fingerprints); start += sqliteMaxVars {
		chunk := fingerprints[start:min(start+sqliteMaxVars, len(fingerprints))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, ownerID)
		for _, fp := range chunk {
			args = append(args, fp)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := s.db.QueryContext(ctx,
			`SELECT fingerprint FROM transactions WHERE user_id = ? AND fingerprint IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query fingerprints: %w", err)
		}
		for rows.Next() {
			var fp string
			if err := rows.Scan(&fp); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
			}
			existing[fp] = struct{}{}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate fingerprints: %w", err)
		}
	}
	return existing, nil
}

// InsertMany writes the records and completes the log in one transaction,
// skipping rows whose (owner, fingerprint) already exists.
func (s *SQLiteStore) InsertMany(ctx context.Context, batch Batch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	l, err := readSQLiteLog(ctx, tx, batch.LogID)
	if err != nil {
		return 0, err
	}
	if l.Status != StatusProcessing {
		return 0, fmt.Errorf("%w: %s", ErrLogFinalized, l.ID)
	}

	inserted := 0
	if len(batch.Records) > 0 {
		if inserted, err = s.insertTransactions(ctx, tx, batch.Records); err != nil {
			return 0, err
		}
	}

	if err := s.finishLog(ctx, tx, l, batch.completion(inserted)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) insertTransactions(ctx context.Context, tx *sql.Tx, records []StoredTransaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, posted_at, description, merchant_name,
			amount_minor, currency_code, kind, fingerprint, import_log_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, fingerprint) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	inserted := 0
	for _, r := range records {
		var categoryID sql.NullString
		if r.CategoryID != nil {
			categoryID = sql.NullString{String: r.CategoryID.String(), Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			r.ID.String(), r.OwnerID, r.AccountID.String(), categoryID, r.PostedAt.UTC(), r.Description,
			nullString(r.MerchantName), r.AmountMinor, r.CurrencyCode, string(r.Kind), r.Fingerprint,
			r.ImportLogID.String(), now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// ListCategories returns the owner's categories by name.
func (s *SQLiteStore) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories WHERE user_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var id string
		var c Category
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid category id %q: %w", id, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category for the owner. The HTTP API manages
// categories elsewhere; this serves the command line importer.
func (s *SQLiteStore) CreateCategory(ctx context.Context, ownerID, name string) (*Category, error) {
	c := &Category{ID: uuid.New(), Name: strings.TrimSpace(name)}
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		c.ID.String(), ownerID, c.Name, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// CountTransactions returns how many transactions the owner has.
func (s *SQLiteStore) CountTransactions(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
