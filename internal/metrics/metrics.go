// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Retrieval outcomes: ok, no_match, session_not_found, dependency_failure, dependency_timeout
	RetrievalOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_retrieval_outcomes_total",
			Help: "Outcome of recipe retrieval operations",
		},
		[]string{"operation", "outcome"},
	)

	ExtractionDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "constraint_extraction_degraded_total",
			Help: "Extraction calls that failed and degraded to an empty result",
		},
		[]string{"stage"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_store_query_duration_seconds",
			Help:    "Duration of ranked recipe store queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"branch"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipe_sessions_active",
			Help: "Sessions currently held by the in-memory session store",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_sessions_evicted_total",
			Help: "Sessions evicted after their idle TTL",
		},
	)

	// Circuit breakers around external NLP services
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through circuit breakers by result",
		},
		[]string{"name", "result"},
	)
)
