package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the lead distribution engine.
type EngineMetrics struct {
	leadsCreated     prometheus.Counter
	leadsExpired     prometheus.Counter
	leadTransitions  *prometheus.CounterVec
	unmaskTotal      *prometheus.CounterVec
	interactionTotal *prometheus.CounterVec
	feedLatency      *prometheus.HistogramVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		leadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parto",
			Subsystem: "leads",
			Name:      "created_total",
			Help:      "Buyer part requests accepted by intake",
		}),
		leadsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parto",
			Subsystem: "leads",
			Name:      "sla_breached_total",
			Help:      "Leads moved to SLA_BREACH by the expiry sweep",
		}),
		leadTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parto",
			Subsystem: "leads",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions applied to leads",
		}, []string{"to"}),
		unmaskTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parto",
			Subsystem: "unmask",
			Name:      "attempts_total",
			Help:      "Unmask attempts by outcome",
		}, []string{"outcome"}),
		interactionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parto",
			Subsystem: "interactions",
			Name:      "updates_total",
			Help:      "Interaction ledger writes by action",
		}, []string{"action"}),
		feedLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parto",
			Subsystem: "feed",
			Name:      "query_seconds",
			Help:      "Latency of supplier feed queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"filter"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.leadsCreated, m.leadsExpired, m.leadTransitions, m.unmaskTotal, m.interactionTotal, m.feedLatency)
	return m
}

func (m *EngineMetrics) ObserveLeadCreated() {
	if m == nil {
		return
	}
	m.leadsCreated.Inc()
}

func (m *EngineMetrics) ObserveLeadsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.leadsExpired.Add(float64(n))
}

func (m *EngineMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.leadTransitions.WithLabelValues(to).Inc()
}

// ObserveUnmask records an outcome such as "revealed", "repeat" or an error code.
func (m *EngineMetrics) ObserveUnmask(outcome string) {
	if m == nil {
		return
	}
	m.unmaskTotal.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) ObserveInteraction(action string) {
	if m == nil {
		return
	}
	m.interactionTotal.WithLabelValues(action).Inc()
}

func (m *EngineMetrics) ObserveFeedLatency(filter string, seconds float64) {
	if m == nil {
		return
	}
	m.feedLatency.WithLabelValues(filter).Observe(seconds)
}
