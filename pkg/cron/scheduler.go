// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	"github.com/FACorreiaa/echo-import/pkg/metrics"
)

// StaleImportMessage is stored on logs failed by the reaper.
const StaleImportMessage = "import interrupted"

const (
	reapSchedule  = "*/5 * * * *"
	pruneSchedule = "*/10 * * * *"
)

// Pruner drops idle per-key state, such as rate limiter buckets.
type Pruner interface {
	Prune() int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron       *cron.Cron
	logs       repository.ImportLogStore
	staleAfter time.Duration
	metrics    *metrics.ImportMetrics
	pruner     Pruner
	now        func() time.Time
	logger     *slog.Logger
}

// NewScheduler creates a new job scheduler. Logs left PROCESSING for longer
// than staleAfter are failed on every run.
func NewScheduler(logs repository.ImportLogStore, staleAfter time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		logs:       logs,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// WithMetrics counts reaped logs in m.
func (s *Scheduler) WithMetrics(m *metrics.ImportMetrics) *Scheduler {
	s.metrics = m
	return s
}

// WithPruner schedules periodic pruning of p.
func (s *Scheduler) WithPruner(p Pruner) *Scheduler {
	s.pruner = p
	return s
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(reapSchedule, s.reap); err != nil {
		return fmt.Errorf("failed to schedule stale import reaper: %w", err)
	}
	if s.pruner != nil {
		if _, err := s.cron.AddFunc(pruneSchedule, s.prune); err != nil {
			return fmt.Errorf("failed to schedule rate limiter pruning: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs. The returned context is done
// once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// ReapStaleImports fails every import that has been PROCESSING for longer
// than the configured threshold and returns how many were updated.
func (s *Scheduler) ReapStaleImports(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.staleAfter)
	n, err := s.logs.FailStaleLogs(ctx, cutoff, StaleImportMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale imports: %w", err)
	}
	s.metrics.ObserveReaped(n)
	return n, nil
}

func (s *Scheduler) reap() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.ReapStaleImports(ctx)
	if err != nil {
		s.logger.Error("stale import reaper failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Warn("failed stale imports",
			slog.Int64("count", n),
			slog.Duration("stale_after", s.staleAfter),
		)
	}
}

func (s *Scheduler) prune() {
	if n := s.pruner.Prune(); n > 0 {
		s.logger.Debug("pruned idle rate limiters", slog.Int("count", n))
	}
}
