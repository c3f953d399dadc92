package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_client_api_requests_total",
			Help: "Total number of API requests issued by the client",
		},
		[]string{"service", "operation", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ats_client_api_request_duration_seconds",
			Help: "Duration of API requests in seconds",
		},
		[]string{"service", "operation"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ats_client_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	CachedRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ats_client_cached_records",
			Help: "Number of applicant records currently cached",
		},
	)
)
