package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool used by PostgresStore.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over a pool or any DBTX.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const logColumns = `id, user_id, file_name, archive_uri, total_rows, imported_count,
	skipped_count, status, error_message, created_at, finished_at`

func scanLog(row pgx.Row) (*ImportLog, error) {
	var l ImportLog
	var status string
	err := row.Scan(&l.ID, &l.OwnerID, &l.FileName, &l.ArchiveURI, &l.TotalRows, &l.ImportedCount,
		&l.SkippedCount, &status, &l.ErrorMessage, &l.CreatedAt, &l.FinishedAt)
	if err != nil {
		return nil, err
	}
	l.Status = LogStatus(status)
	return &l, nil
}

// CreateLog inserts a PROCESSING log.
func (s *PostgresStore) CreateLog(ctx context.Context, entry NewImportLog) (*ImportLog, error) {
	var archiveURI *string
	if entry.ArchiveURI != "" {
		archiveURI = &entry.ArchiveURI
	}

	query := `
		INSERT INTO import_logs (id, user_id, file_name, archive_uri, total_rows, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + logColumns

	l, err := scanLog(s.db.QueryRow(ctx, query,
		uuid.New(), entry.OwnerID, entry.FileName, archiveURI, entry.TotalRows, string(StatusProcessing)))
	if err != nil {
		return nil, fmt.Errorf("failed to create import log: %w", err)
	}
	return l, nil
}

// UpdateLog applies a terminal transition to a PROCESSING log.
func (s *PostgresStore) UpdateLog(ctx context.Context, id uuid.UUID, update LogUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockLog(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := finishLog(ctx, tx, l, update); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import log: %w", err)
	}
	return nil
}

// lockLog reads a log and holds its row lock until tx ends.
func lockLog(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*ImportLog, error) {
	l, err := scanLog(tx.QueryRow(ctx, `SELECT `+logColumns+` FROM import_logs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to lock import log: %w", err)
	}
	return l, nil
}

// finishLog moves a log locked by lockLog to its terminal state.
func finishLog(ctx context.Context, tx pgx.Tx, l *ImportLog, update LogUpdate) error {
	next, err := finish(l, update, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE import_logs
		SET status = $2, imported_count = $3, skipped_count = $4, error_message = $5, finished_at = $6
		WHERE id = $1`,
		l.ID, string(next.Status), next.ImportedCount, next.SkippedCount, next.ErrorMessage, next.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// GetLog returns one of the owner's logs.
func (s *PostgresStore) GetLog(ctx context.Context, ownerID string, id uuid.UUID) (*ImportLog, error) {
	query := `SELECT ` + logColumns + ` FROM import_logs WHERE id = $1 AND user_id = $2`

	l, err := scanLog(s.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get import log: %w", err)
	}
	return l, nil
}

// ListLogs returns the owner's logs, newest first.
func (s *PostgresStore) ListLogs(ctx context.Context, ownerID string, limit, offset int) ([]ImportLog, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + logColumns + `
		FROM import_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		l, err := scanLog(rows)
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
func (s *PostgresStore) FailStaleLogs(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	query := `
		UPDATE import_logs
		SET status = 'FAILED', error_message = $2, finished_at = now()
		WHERE status = 'PROCESSING' AND created_at < $1`

	tag, err := s.db.Exec(ctx, query, cutoff, message)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale import logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindFingerprints returns which of the fingerprints the owner already has.
func (s *PostgresStore) FindFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(fingerprints) == 0 {
		return existing, nil
	}

	query := `SELECT fingerprint FROM transactions WHERE user_id = $1 AND fingerprint = ANY($2)`

	rows, err := s.db.Query(ctx, query, ownerID, fingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		existing[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprints: %w", err)
	}
	return existing, nil
}

var transactionColumns = []string{
	"id", "user_id", "account_id", "category_id", "posted_at", "description", "merchant_name",
	"amount_minor", "currency_code", "kind", "fingerprint", "import_log_id",
}

// InsertMany copies the records into a session-local staging table, moves
// them into transactions with a single conflict-skipping insert and completes
// the log, all inside one database transaction. The log row stays locked
// from the first statement so the reaper cannot fail it mid-commit.
func (s *PostgresStore) InsertMany(ctx context.Context, batch Batch) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockLog(ctx, tx, batch.LogID)
	if err != nil {
		return 0, err
	}
	if l.Status != StatusProcessing {
		return 0, fmt.Errorf("%w: %s", ErrLogFinalized, l.ID)
	}

	inserted := 0
	if len(batch.Records) > 0 {
		if inserted, err = copyTransactions(ctx, tx, batch.Records); err != nil {
			return 0, err
		}
	}

	if err := finishLog(ctx, tx, l, batch.completion(inserted)); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

func copyTransactions(ctx context.Context, tx pgx.Tx, records []StoredTransaction) (int, error) {
	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE import_staging
		(LIKE transactions INCLUDING DEFAULTS)
		ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		var merchant *string
		if r.MerchantName != "" {
			merchant = &r.MerchantName
		}
		rows[i] = []any{
			r.ID, r.OwnerID, r.AccountID, r.CategoryID, r.PostedAt, r.Description, merchant,
			r.AmountMinor, r.CurrencyCode, string(r.Kind), r.Fingerprint, r.ImportLogID,
		}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"import_staging"}, transactionColumns, pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("failed to stage transactions: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, posted_at, description, merchant_name,
			amount_minor, currency_code, kind, fingerprint, import_log_id)
		SELECT id, user_id, account_id, category_id, posted_at, description, merchant_name,
			amount_minor, currency_code, kind, fingerprint, import_log_id
		FROM import_staging
		ON CONFLICT (user_id, fingerprint) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transactions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListCategories returns the owner's categories by name.
func (s *PostgresStore) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM categories WHERE user_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}
