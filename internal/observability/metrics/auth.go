package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_used_total",
			Help: "Total number of refresh tokens exchanged for a new access token",
		},
	)

	RefreshTokensRenewed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_renewed_total",
			Help: "Total number of refresh tokens whose expiration was extended",
		},
	)

	RefreshTokensRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_rejected_total",
			Help: "Total number of refresh attempts rejected as invalid or expired",
		},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of failed credential verifications",
		},
	)

	TokensCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_cleanup_deleted_total",
			Help: "Total number of expired tokens deleted during cleanup",
		},
	)
)
