// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "route"},
	)

	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI provider calls",
		},
		[]string{"operation", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ai_request_duration_seconds",
			Help: "Duration of AI provider calls in seconds",
			Buckets: []float64{
				0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
			},
		},
		[]string{"operation"},
	)

	MatchesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_upserted_total",
			Help: "Total number of match results written to the store",
		},
	)

	ResumeUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_uploads_total",
			Help: "Total number of resume upload attempts",
		},
		[]string{"outcome"},
	)
)
