// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationRequests counts recommendation requests by outcome:
	// "ai", "fallback", "breaker_fallback", "cached", "not_found", "upstream_error",
	// "malformed", "timeout", "internal".
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpair_recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitpair_recommendation_pool_size",
			Help:    "Number of candidate users considered per recommendation request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitpair_ai_request_duration_seconds",
			Help:    "Duration of generative model calls in seconds, retries included",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"status"},
	)

	AIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpair_ai_retries_total",
			Help: "Total number of retried generative model calls",
		},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitpair_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpair_websocket_connections",
			Help: "Current number of open websocket connections",
		},
	)

	PushNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpair_push_notifications_total",
			Help: "Total number of APNs pushes by result",
		},
		[]string{"result"},
	)
)
