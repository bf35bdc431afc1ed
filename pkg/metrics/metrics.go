// Package metrics provides a Prometheus-backed implementation of
// metricsink.Sink plus the router's own operational collectors (shard call
// outcomes, circuit breaker state), and an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/nikhilvora/accessrouter/internal/metricsink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the router process and
// implements metricsink.Sink by recording begin/end/increment signals under
// an "operation" or "metric" label.
type Metrics struct {
	OperationsInFlight  *prometheus.GaugeVec
	OperationDuration   *prometheus.HistogramVec
	OperationsTotal     *prometheus.CounterVec
	EventsTotal         *prometheus.CounterVec
	ShardCallsTotal     *prometheus.CounterVec
	ActiveShards        prometheus.Gauge
	CircuitBreakerState *prometheus.GaugeVec

	// HTTP* instrument the admin server's own endpoints (health probes,
	// /debug/get-users) — the router has no REST operation surface, but the admin
	// server is still an HTTP server worth the same middleware the teacher
	// repo applies to its own HTTP front ends.
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

type beginToken struct {
	metric string
	start  time.Time
}

// New creates and registers all Prometheus metrics for the router against
// the default registry, suitable for a single process-wide instance.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them
// against reg. Tests use a fresh prometheus.NewRegistry() so repeated
// construction within a single test binary never collides with the
// default registry's collector names.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "router_operations_in_flight",
				Help: "Router operations currently executing, by operation name.",
			},
			[]string{"operation"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "router_operation_duration_seconds",
				Help:    "Router operation latency in seconds, by operation name.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "router_operations_total",
				Help: "Completed router operations by name and outcome (ok, cancelled).",
			},
			[]string{"operation", "outcome"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "router_events_total",
				Help: "Ad-hoc increment() signals emitted by the router, by metric name.",
			},
			[]string{"metric"},
		),
		ShardCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "router_shard_calls_total",
				Help: "Per-shard call outcomes dispatched by the fan-out executor.",
			},
			[]string{"shard_label", "outcome"},
		),
		ActiveShards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "router_active_shards",
				Help: "Number of shard clients currently known to the directory.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "router_circuit_breaker_state",
				Help: "Circuit breaker state per shard label (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "router_http_requests_in_flight",
				Help: "Admin HTTP requests currently being served.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "router_http_requests_total",
				Help: "Admin HTTP requests by method, path, and status code.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "router_http_request_duration_seconds",
				Help:    "Admin HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(
		m.OperationsInFlight,
		m.OperationDuration,
		m.OperationsTotal,
		m.EventsTotal,
		m.ShardCallsTotal,
		m.ActiveShards,
		m.CircuitBreakerState,
		m.HTTPRequestsInFlight,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Begin implements metricsink.Sink.
func (m *Metrics) Begin(metricName string) any {
	m.OperationsInFlight.WithLabelValues(metricName).Inc()
	return beginToken{metric: metricName, start: time.Now()}
}

// End implements metricsink.Sink.
func (m *Metrics) End(id any, metricName string) {
	m.OperationsInFlight.WithLabelValues(metricName).Dec()
	if tok, ok := id.(beginToken); ok {
		m.OperationDuration.WithLabelValues(metricName).Observe(time.Since(tok.start).Seconds())
	}
	m.OperationsTotal.WithLabelValues(metricName, "ok").Inc()
}

// CancelBegin implements metricsink.Sink.
func (m *Metrics) CancelBegin(id any, metricName string) {
	m.OperationsInFlight.WithLabelValues(metricName).Dec()
	m.OperationsTotal.WithLabelValues(metricName, "cancelled").Inc()
}

// Increment implements metricsink.Sink.
func (m *Metrics) Increment(metricName string) {
	m.EventsTotal.WithLabelValues(metricName).Inc()
}

// RecordShardCall records the outcome of one per-shard call dispatched by
// the fan-out executor.
func (m *Metrics) RecordShardCall(shardLabel string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.ShardCallsTotal.WithLabelValues(shardLabel, outcome).Inc()
}

var _ metricsink.Sink = (*Metrics)(nil)

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
