// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of portal HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Duration of portal HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_backend_requests_total",
			Help: "Total number of calls made to the crew-management backend",
		},
		[]string{"method", "resource", "result"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Duration of backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	InboxPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_inbox_polls_total",
			Help: "Total number of unread-count polls",
		},
		[]string{"role", "result"},
	)

	InboxWatchers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portal_inbox_watched_viewers",
			Help: "Number of viewers with an active unread-count poll loop",
		},
		[]string{"role"},
	)
)
