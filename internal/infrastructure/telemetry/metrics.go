package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "order_source"

// Metrics is the Prometheus instrumentation of the gateway. Each instance owns
// a dedicated registry so tests can create as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	batchItems    *prometheus.CounterVec
	authFailures  prometheus.Counter
	credentialHit *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway collectors together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path", "status"},
		),
		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "batch_items_total", Help: "Batch items processed by operation and outcome."},
			[]string{"operation", "outcome", "category"},
		),
		authFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "auth_failures_total", Help: "Rejected API key authentications."},
		),
		credentialHit: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: "credential_cache_lookups_total", Help: "Credential cache lookups by tier and result."},
			[]string{"tier", "result"},
		),
	}

	m.Registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.batchItems,
		m.authFailures,
		m.credentialHit,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveHTTP records one served request. path should be the route template,
// not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// RecordItem counts one batch item outcome.
func (m *Metrics) RecordItem(operation string, failed bool, category integration.ErrorCategory) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	m.batchItems.WithLabelValues(operation, outcome, category.String()).Inc()
}

// RecordAuthFailure counts a rejected API key.
func (m *Metrics) RecordAuthFailure() {
	m.authFailures.Inc()
}

// RecordCredentialLookup counts a credential cache lookup on the given tier.
func (m *Metrics) RecordCredentialLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.credentialHit.WithLabelValues(tier, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
