package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks calls to the conversation-memory service.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	BreakerOpen     prometheus.Gauge
}

// New creates and registers the memory client metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callrouter_memory_request_duration_seconds",
			Help:    "Conversation-memory service request latency by operation and outcome",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"op", "outcome"}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "callrouter_memory_breaker_open",
			Help: "1 while the memory-service circuit breaker is open",
		}),
	}
}

// ObserveRequest records one request.
func (m *Metrics) ObserveRequest(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// SetBreakerOpen mirrors the breaker state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
