package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks transcript persistence.
type Metrics struct {
	Calls         *prometheus.CounterVec
	Batches       *prometheus.CounterVec
	MessagesSaved prometheus.Counter
	Duration      prometheus.Histogram
}

// New creates and registers the persistence metrics.
func New() *Metrics {
	return &Metrics{
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_persist_calls_total",
			Help: "Calls persisted to conversation memory, by final stage and outcome",
		}, []string{"stage", "outcome"}),
		Batches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_persist_batches_total",
			Help: "Message append batches, by outcome",
		}, []string{"outcome"}),
		MessagesSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "callrouter_persist_messages_saved_total",
			Help: "Transcript messages appended to conversation memory",
		}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "callrouter_persist_duration_seconds",
			Help:    "Duration of persisting one call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}
}

// ObserveCall records one PersistCall.
func (m *Metrics) ObserveCall(stage string, success bool, start time.Time) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "partial"
	}
	m.Calls.WithLabelValues(stage, outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}

// ObserveBatch records one append request.
func (m *Metrics) ObserveBatch(saved int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Batches.WithLabelValues("failed").Inc()
		return
	}
	m.Batches.WithLabelValues("ok").Inc()
	m.MessagesSaved.Add(float64(saved))
}
