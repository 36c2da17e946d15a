package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReindexMetrics counts search-engine notification attempts.
type ReindexMetrics struct {
	pings *prometheus.CounterVec
}

// NewReindexMetrics registers the reindex metrics on the provided registerer.
func NewReindexMetrics(reg prometheus.Registerer) *ReindexMetrics {
	if reg == nil {
		return &ReindexMetrics{}
	}
	pings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "isolele_reindex_pings_total",
		Help: "Search engine pings by service and result.",
	}, []string{"service", "result"})
	reg.MustRegister(pings)
	return &ReindexMetrics{pings: pings}
}

// IncPing records one ping to service.
func (r *ReindexMetrics) IncPing(service string, ok bool) {
	if r == nil || r.pings == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	r.pings.WithLabelValues(normalizeLabel(service), result).Inc()
}
