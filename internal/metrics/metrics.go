// Package metrics provides Prometheus instrumentation for the HTTP API
// and the ticket workflows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. Everything is registered on a private
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	ticketsCreated    prometheus.Counter
	receiptsGenerated prometheus.Counter
	usersRegistered   prometheus.Counter
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kvitok_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kvitok_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ticketsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kvitok_tickets_created_total",
			Help: "Total number of tickets created.",
		}),
		receiptsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kvitok_receipts_generated_total",
			Help: "Total number of receipt documents rendered and stored.",
		}),
		usersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "kvitok_users_registered_total",
			Help: "Total number of registered users.",
		}),
	}
}

// TicketCreated increments the created-tickets counter.
func (m *Metrics) TicketCreated() {
	m.ticketsCreated.Inc()
}

// ReceiptGenerated increments the rendered-receipts counter.
// Cache and storage hits that reuse an existing document do not count.
func (m *Metrics) ReceiptGenerated() {
	m.receiptsGenerated.Inc()
}

// UserRegistered increments the registered-users counter.
func (m *Metrics) UserRegistered() {
	m.usersRegistered.Inc()
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies. Route patterns are
// resolved after the handler runs so chi path parameters collapse into
// a single label value.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
