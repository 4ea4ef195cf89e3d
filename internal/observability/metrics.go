// Package observability provides metrics and tracing.
package observability

import (
	"errors"
	"time"

	"gyma/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FriendshipTransitions counts friendship operations by operation and result.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_friendship_transitions_total",
		Help: "Total number of friendship operations by operation and result",
	}, []string{"operation", "result"})

	// FeedRequests counts feed calls by variant.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_feed_requests_total",
		Help: "Total number of feed requests by variant",
	}, []string{"variant"})

	// FeedSize records how many entries a feed call returned.
	FeedSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gyma_feed_size",
		Help:    "Number of entries returned per feed request",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	}, []string{"variant"})

	// FeedQueryLatency records feed query latency by variant.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gyma_feed_query_latency_seconds",
		Help:    "Feed query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SessionLookups counts session resolutions by result.
	SessionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_session_lookups_total",
		Help: "Total number of session lookups by result",
	}, []string{"result"})

	// RateLimitDecisions counts rate limiter outcomes by rule and result.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_rate_limit_decisions_total",
		Help: "Total number of rate limit decisions by rule and result",
	}, []string{"rule", "result"})

	// EventsPublished counts domain events by type and result.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyma_events_published_total",
		Help: "Total number of domain events published by type and result",
	}, []string{"type", "result"})
)

// ObserveFeed records one feed call.
func ObserveFeed(variant string, size int, start time.Time) {
	FeedRequests.WithLabelValues(variant).Inc()
	FeedSize.WithLabelValues(variant).Observe(float64(size))
	FeedQueryLatency.WithLabelValues(variant).Observe(time.Since(start).Seconds())
}

// ResultLabel is "ok" for a nil error, the AppError code otherwise.
func ResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return models.CodeInternal
}
