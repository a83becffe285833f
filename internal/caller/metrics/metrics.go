package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks caller profile resolution.
type Metrics struct {
	Profiles       *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	ResolveLatency prometheus.Histogram
}

// New creates and registers the caller profile metrics.
func New() *Metrics {
	return &Metrics{
		Profiles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_caller_profiles_total",
			Help: "Caller profiles resolved, by known-contact and returning flags",
		}, []string{"known", "returning"}),
		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_caller_source_failures_total",
			Help: "Profile source lookups that failed and were treated as empty",
		}, []string{"source"}),
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "callrouter_caller_resolve_duration_seconds",
			Help:    "Duration of a caller profile resolution",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
	}
}

// ObserveProfile records one resolved profile.
func (m *Metrics) ObserveProfile(known, returning bool, start time.Time) {
	if m == nil {
		return
	}
	m.Profiles.WithLabelValues(boolLabel(known), boolLabel(returning)).Inc()
	m.ResolveLatency.Observe(time.Since(start).Seconds())
}

// IncSourceFailure counts a failed source lookup.
func (m *Metrics) IncSourceFailure(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
