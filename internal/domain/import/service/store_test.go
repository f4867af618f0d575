package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
)

// memoryStore is an in-memory repository.Store with failure injection.
type memoryStore struct {
	mu         sync.Mutex
	logs       map[uuid.UUID]repository.ImportLog
	txs        map[string]repository.StoredTransaction
	categories map[string][]repository.Category

	failCreateLog error
	failFind      error
	failInsert    error
	failComplete  error
	beforeInsert  func()
	afterInsert   func()
}

var _ repository.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		logs:       make(map[uuid.UUID]repository.ImportLog),
		txs:        make(map[string]repository.StoredTransaction),
		categories: make(map[string][]repository.Category),
	}
}

func txKey(owner, fp string) string { return owner + "|" + fp }

func (m *memoryStore) CreateLog(ctx context.Context, entry repository.NewImportLog) (*repository.ImportLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failCreateLog != nil {
		return nil, m.failCreateLog
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l := repository.ImportLog{
		ID:        uuid.New(),
		OwnerID:   entry.OwnerID,
		FileName:  entry.FileName,
		TotalRows: entry.TotalRows,
		Status:    repository.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if entry.ArchiveURI != "" {
		uri := entry.ArchiveURI
		l.ArchiveURI = &uri
	}
	m.logs[l.ID] = l
	return &l, nil
}

func (m *memoryStore) UpdateLog(ctx context.Context, id uuid.UUID, update repository.LogUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finishLocked(id, update)
}

func (m *memoryStore) finishLocked(id uuid.UUID, update repository.LogUpdate) error {
	l, ok := m.logs[id]
	if !ok {
		return repository.ErrLogNotFound
	}
	if l.Status != repository.StatusProcessing {
		return repository.ErrLogFinalized
	}
	next, err := l.Apply(update, time.Now().UTC())
	if err != nil {
		return err
	}
	m.logs[id] = next
	return nil
}

func (m *memoryStore) GetLog(_ context.Context, ownerID string, id uuid.UUID) (*repository.ImportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok || l.OwnerID != ownerID {
		return nil, repository.ErrLogNotFound
	}
	return &l, nil
}

func (m *memoryStore) ListLogs(_ context.Context, ownerID string, _, _ int) ([]repository.ImportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.ImportLog
	for _, l := range m.logs {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) FailStaleLogs(_ context.Context, cutoff time.Time, message string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, l := range m.logs {
		if l.Status == repository.StatusProcessing && l.CreatedAt.Before(cutoff) {
			msg := message
			l.Status, l.ErrorMessage = repository.StatusFailed, &msg
			m.logs[id] = l
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) FindFingerprints(ctx context.Context, ownerID string, fps []string) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failFind != nil {
		return nil, m.failFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	for _, fp := range fps {
		if _, ok := m.txs[txKey(ownerID, fp)]; ok {
			out[fp] = struct{}{}
		}
	}
	return out, nil
}

// InsertMany stages the batch and publishes it together with the completed
// log. Any error, including a context cancelled after staging, discards the
// staged rows.
func (m *memoryStore) InsertMany(ctx context.Context, batch repository.Batch) (int, error) {
	if m.beforeInsert != nil {
		m.beforeInsert()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.failInsert != nil {
		return 0, m.failInsert
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]repository.StoredTransaction)
	for _, r := range batch.Records {
		if r.AmountMinor <= 0 {
			return 0, fmt.Errorf("amount_minor must be positive")
		}
		key := txKey(r.OwnerID, r.Fingerprint)
		if _, ok := m.txs[key]; ok {
			continue
		}
		if _, ok := staged[key]; ok {
			continue
		}
		staged[key] = r
	}

	if m.afterInsert != nil {
		m.afterInsert()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.failComplete != nil {
		return 0, m.failComplete
	}
	skipped := batch.Duplicates + len(batch.Records) - len(staged)
	if err := m.finishLocked(batch.LogID, repository.Completed(len(staged), skipped)); err != nil {
		return 0, err
	}
	for k, r := range staged {
		m.txs[k] = r
	}
	return len(staged), nil
}

func (m *memoryStore) ListCategories(_ context.Context, ownerID string) ([]repository.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[ownerID], nil
}

// insert stores a transaction directly, as a concurrent import would.
func (m *memoryStore) insert(owner, fp string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[txKey(owner, fp)] = repository.StoredTransaction{OwnerID: owner, Fingerprint: fp}
}

func (m *memoryStore) transactions(owner string) []repository.StoredTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.StoredTransaction
	for _, tx := range m.txs {
		if tx.OwnerID == owner {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.Before(out[j].PostedAt) })
	return out
}

func (m *memoryStore) allLogs() []repository.ImportLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.ImportLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l)
	}
	return out
}
