package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks territory resolution outcomes and the directory snapshot.
type Metrics struct {
	Resolutions        *prometheus.CounterVec
	ResolveDuration    prometheus.Histogram
	DirectorySize      prometheus.Gauge
	DirectoryRefreshes *prometheus.CounterVec
}

// New creates and registers the territory metrics.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_territory_resolutions_total",
			Help: "Territory resolutions by outcome and lookup source",
		}, []string{"outcome", "source"}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "callrouter_territory_resolve_duration_seconds",
			Help:    "Duration of a full town-to-specialist resolution",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}),
		DirectorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "callrouter_territory_directory_size",
			Help: "Territories held in the in-memory directory snapshot",
		}),
		DirectoryRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_territory_directory_refreshes_total",
			Help: "Directory snapshot rebuilds by result",
		}, []string{"result"}),
	}
}

// ObserveResolution records one resolution.
func (m *Metrics) ObserveResolution(outcome, source string, start time.Time) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome, source).Inc()
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

// ObserveRefresh records a directory rebuild.
func (m *Metrics) ObserveRefresh(size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DirectoryRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.DirectoryRefreshes.WithLabelValues("ok").Inc()
	m.DirectorySize.Set(float64(size))
}
