// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promptsmith"

var (
	// Resolutions counts requests by how they were resolved
	// (rule, cache, upstream, error).
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Requests resolved, by outcome.",
	}, []string{"outcome", "category", "language"})

	// CacheLookups counts cache lookups by result (local, shared, approx, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups, by tier that answered or miss.",
	}, []string{"result"})

	// CacheSharedErrors counts failed shared-tier operations.
	CacheSharedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "shared_errors_total",
		Help:      "Shared cache tier operations that failed and were degraded.",
	}, []string{"op"})

	// CacheBreakerOpen is 1 while the shared-tier circuit breaker is open.
	CacheBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "breaker_open",
		Help:      "1 while the shared cache circuit breaker is open.",
	})

	// UpstreamAttempts counts upstream calls by provider and result.
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "attempts_total",
		Help:      "Upstream generation attempts, by provider and result.",
	}, []string{"provider", "result"})

	// UpstreamLatency observes the wall-clock time of upstream calls.
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "latency_seconds",
		Help:      "Upstream generation latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider"})

	// Sanitized counts upstream outputs rewritten by the output filter.
	Sanitized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sanitized_total",
		Help:      "Upstream outputs repaired by the output filter, by action.",
	}, []string{"action"})

	// RateLimited counts HTTP requests rejected by the per-client limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter.",
	})
)
