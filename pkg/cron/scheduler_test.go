package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	"github.com/FACorreiaa/echo-import/pkg/metrics"
)

type fakeLogStore struct {
	repository.ImportLogStore
	cutoff  time.Time
	message string
	reaped  int64
	err     error
}

func (f *fakeLogStore) FailStaleLogs(_ context.Context, cutoff time.Time, message string) (int64, error) {
	f.cutoff, f.message = cutoff, message
	return f.reaped, f.err
}

type countingPruner struct{ calls int }

func (p *countingPruner) Prune() int {
	p.calls++
	return 1
}

func newScheduler(store repository.ImportLogStore) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(store, 30*time.Minute, logger)
}

func TestReapStaleImports(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fails logs older than the threshold", func(t *testing.T) {
		store := &fakeLogStore{reaped: 2}
		m := metrics.NewImportMetrics(prometheus.NewRegistry())
		s := newScheduler(store).WithMetrics(m)
		s.now = func() time.Time { return now }

		n, err := s.ReapStaleImports(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, now.Add(-30*time.Minute), store.cutoff)
		assert.Equal(t, StaleImportMessage, store.message)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleReaped))
	})

	t.Run("store error", func(t *testing.T) {
		store := &fakeLogStore{err: errors.New("db down")}
		s := newScheduler(store)

		_, err := s.ReapStaleImports(context.Background())
		assert.ErrorContains(t, err, "db down")
	})
}

func TestScheduler_StartStop(t *testing.T) {
	pruner := &countingPruner{}
	s := newScheduler(&fakeLogStore{}).WithPruner(pruner)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)

	s.prune()
	assert.Equal(t, 1, pruner.calls)

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_ReapJob(t *testing.T) {
	store := &fakeLogStore{reaped: 0}
	s := newScheduler(store)
	s.reap()
	assert.Equal(t, StaleImportMessage, store.message)
}
