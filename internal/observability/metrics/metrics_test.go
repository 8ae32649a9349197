package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveCycle("dispatched", time.Now())
	m.Delivery(true)
	m.JobRun("dispatch", "ok")
	m.Purged(3)
	m.Update("text")
	if m.Registry() != nil {
		t.Fatalf("Registry() on nil = non-nil")
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.Delivery(true)
	m.Delivery(true)
	m.Delivery(false)
	m.Purged(2)
	m.Purged(0)
	m.ObserveCycle("duplicate", time.Now())

	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("sent")); got != 2 {
		t.Fatalf("sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.purged); got != 2 {
		t.Fatalf("purged = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cycles.WithLabelValues("duplicate")); got != 1 {
		t.Fatalf("cycles{duplicate} = %v, want 1", got)
	}
}
