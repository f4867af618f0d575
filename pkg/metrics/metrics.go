// Package metrics exposes Prometheus collectors for statement imports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics counts rows and commits of the import pipeline.
type ImportMetrics struct {
	Rows           *prometheus.CounterVec
	Commits        *prometheus.CounterVec
	CommitDuration prometheus.Histogram
	StaleReaped    prometheus.Counter
}

// NewImportMetrics creates the collectors and registers them with reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echo",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Statement rows processed, by outcome (imported, skipped, dropped).",
		}, []string{"outcome"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echo",
			Subsystem: "import",
			Name:      "commits_total",
			Help:      "Import commits by final log status.",
		}, []string{"status"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "echo",
			Subsystem: "import",
			Name:      "commit_duration_seconds",
			Help:      "Wall time of import commits.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		StaleReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "echo",
			Subsystem: "import",
			Name:      "stale_logs_failed_total",
			Help:      "Import logs failed by the stale-log reaper.",
		}),
	}
	reg.MustRegister(m.Rows, m.Commits, m.CommitDuration, m.StaleReaped)
	return m
}

// ObserveCommit records one finished commit. A nil receiver is a no-op.
func (m *ImportMetrics) ObserveCommit(status string, imported, skipped, dropped int, took time.Duration) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(status).Inc()
	m.CommitDuration.Observe(took.Seconds())
	m.Rows.WithLabelValues("imported").Add(float64(imported))
	m.Rows.WithLabelValues("skipped").Add(float64(skipped))
	m.Rows.WithLabelValues("dropped").Add(float64(dropped))
}

// ObserveReaped records logs failed by the reaper. A nil receiver is a no-op.
func (m *ImportMetrics) ObserveReaped(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleReaped.Add(float64(n))
}
