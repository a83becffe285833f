package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	WebhookEvents   *prometheus.CounterVec
}

// New creates and registers the HTTP metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callrouter_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callrouter_webhook_events_total",
			Help: "Webhook events received by event type and outcome",
		}, []string{"event", "outcome"}),
	}
}

// IncWebhookEvent counts a webhook delivery.
func (m *Metrics) IncWebhookEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(event, outcome).Inc()
}

// LatencyMiddleware observes request durations labelled by the chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) LatencyMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
