// Package metrics declares the Prometheus collectors of the service and
// the ingest command. All collectors live on the default registry and
// are exposed by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinopoisk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kinopoisk_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthzDecisionsTotal counts guard decisions per operation.
	AuthzDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinopoisk_authz_decisions_total",
		Help: "Authorization table decisions by operation and outcome",
	}, []string{"operation", "decision"})

	// IngestMoviesTotal counts films handled by ingestion by outcome
	// (created, skipped, failed).
	IngestMoviesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinopoisk_ingest_movies_total",
		Help: "Films processed by the ingest job",
	}, []string{"outcome"})

	// UpstreamRequestsTotal counts Kinopoisk API calls by endpoint and result.
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinopoisk_upstream_requests_total",
		Help: "Requests to the Kinopoisk API",
	}, []string{"endpoint", "result"})
)

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthz records a guard decision.
func RecordAuthz(operation string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisionsTotal.WithLabelValues(operation, decision).Inc()
}
