// Package metrics exposes Prometheus collectors for the inspector service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	inspectionsTotal           *prometheus.CounterVec
	subrequestsTotal           *prometheus.CounterVec
	rateLimitRejectionsTotal   prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times; every Observe helper
// calls it.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"method", "route"},
		)

		inspectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspector_inspections_total",
				Help: "Total number of inspections, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		subrequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspector_subrequests_total",
				Help: "Secondary fetches (probes, listings, stylesheets, registry), labeled by kind and result.",
			},
			[]string{"kind", "result"},
		)

		rateLimitRejectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inspector_rate_limit_rejections_total",
				Help: "Total number of requests rejected by the per-IP rate limiter.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveInspection counts a finished inspection. Outcomes are
// wordpress, not_wordpress, invalid, unreachable and error.
func ObserveInspection(outcome string) {
	Init()
	inspectionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSubrequest counts a secondary fetch. result is ok, miss, blocked or error.
func ObserveSubrequest(kind, result string) {
	Init()
	subrequestsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveRateLimitRejection counts a 429.
func ObserveRateLimitRejection() {
	Init()
	rateLimitRejectionsTotal.Inc()
}
