package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PreviewSucceeded(0.01, map[string]int{"matched": 3, "unmatched": 1})
	m.PreviewFailed("FILE005")
	m.Commit(true, 3)
	m.Commit(false, 0)
	m.Rollback()
	m.SetSessions(2)

	if got := testutil.ToFloat64(m.previews.WithLabelValues("ok")); got != 1 {
		t.Errorf("previews ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rowOutcomes.WithLabelValues("matched")); got != 3 {
		t.Errorf("matched rows = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.committedRows); got != 3 {
		t.Errorf("committed rows = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.commits.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed commits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessions); got != 2 {
		t.Errorf("sessions = %v, want 2", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.PreviewFailed("x")
	m.PreviewSucceeded(1, map[string]int{"matched": 1})
	m.Commit(true, 1)
	m.Rollback()
	m.SetSessions(1)
}
