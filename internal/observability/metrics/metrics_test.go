package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.ObserveLeadCreated()
	m.ObserveLeadsExpired(3)
	m.ObserveLeadsExpired(0)
	m.ObserveTransition("ACTIVE")
	m.ObserveUnmask("revealed")
	m.ObserveUnmask("revealed")
	m.ObserveUnmask("LEAD_CAPACITY_REACHED")
	m.ObserveInteraction("star")
	m.ObserveFeedLatency("ALL", 0.02)

	if got := testutil.ToFloat64(m.unmaskTotal.WithLabelValues("revealed")); got != 2 {
		t.Fatalf("expected 2 reveals, got %v", got)
	}
	if got := testutil.ToFloat64(m.leadsExpired); got != 3 {
		t.Fatalf("expected 3 expired, got %v", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveLeadCreated()
	m.ObserveLeadsExpired(1)
	m.ObserveTransition("ACTIVE")
	m.ObserveUnmask("revealed")
	m.ObserveInteraction("ignore")
	m.ObserveFeedLatency("ALL", 0.1)
}
