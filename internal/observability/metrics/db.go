package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBPoolAcquiredConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_db_pool_acquired_connections",
			Help: "Connections currently checked out of the auth database pool",
		},
	)

	DBPoolIdleConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_db_pool_idle_connections",
			Help: "Idle connections in the auth database pool",
		},
	)

	DBPoolMaxConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_db_pool_max_connections",
			Help: "Configured ceiling of the auth database pool",
		},
	)

	DBPoolTotalConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_db_pool_total_connections",
			Help: "Total connections held by the auth database pool",
		},
	)

	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_db_query_duration_seconds",
			Help:    "Duration of user and token store queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_db_query_errors_total",
			Help: "Total number of failed user and token store queries",
		},
		[]string{"operation", "table", "error_type"},
	)
)
