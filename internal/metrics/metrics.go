// Package metrics exposes Prometheus collectors for grade imports.
//
// A nil *Metrics is valid and records nothing, so callers and tests can
// leave it unset.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gradeimport"

// Metrics holds the import collectors.
type Metrics struct {
	previews      *prometheus.CounterVec
	rowOutcomes   *prometheus.CounterVec
	commits       *prometheus.CounterVec
	committedRows prometheus.Counter
	rollbacks     prometheus.Counter
	sessions      prometheus.Gauge
	parseSeconds  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		previews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Uploaded sheets by preview result.",
		}, []string{"result"}),
		rowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_rows_total",
			Help:      "Previewed rows by match outcome.",
		}, []string{"outcome"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commit attempts by result.",
		}, []string{"result"}),
		committedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_rows_total",
			Help:      "Grade records inserted by successful commits.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Batches rolled back.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Import sessions currently held in memory.",
		}),
		parseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time to parse and reconcile an uploaded sheet.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	reg.MustRegister(
		m.previews,
		m.rowOutcomes,
		m.commits,
		m.committedRows,
		m.rollbacks,
		m.sessions,
		m.parseSeconds,
	)
	return m
}

// PreviewFailed counts an upload that did not reach Previewing.
// reason is a support code such as FILE005.
func (m *Metrics) PreviewFailed(reason string) {
	if m == nil {
		return
	}
	m.previews.WithLabelValues(reason).Inc()
}

// PreviewSucceeded counts a successful preview and its row outcomes.
func (m *Metrics) PreviewSucceeded(seconds float64, outcomes map[string]int) {
	if m == nil {
		return
	}
	m.previews.WithLabelValues("ok").Inc()
	m.parseSeconds.Observe(seconds)
	for outcome, n := range outcomes {
		m.rowOutcomes.WithLabelValues(outcome).Add(float64(n))
	}
}

// Commit counts a commit attempt; rows is only added on success.
func (m *Metrics) Commit(ok bool, rows int) {
	if m == nil {
		return
	}
	if !ok {
		m.commits.WithLabelValues("failed").Inc()
		return
	}
	m.commits.WithLabelValues("ok").Inc()
	m.committedRows.Add(float64(rows))
}

// Rollback counts an undone batch.
func (m *Metrics) Rollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// SetSessions reports the number of sessions held in memory.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
