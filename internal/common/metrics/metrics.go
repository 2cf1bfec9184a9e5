// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of dispatch attempts by terminal outcome",
		},
		[]string{"outcome"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_failures_total",
			Help: "Total number of failed dispatches by error code",
		},
		[]string{"error_code"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Duration of one dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_dispatch_in_flight",
			Help: "Number of dispatches currently being processed",
		},
	)

	ResolverFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_resolver_fallbacks_total",
			Help: "Total number of resolution steps that fell back to a default",
		},
		[]string{"step"},
	)

	PushRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_push_requests_total",
			Help: "Total number of push provider calls by result",
		},
		[]string{"result"},
	)

	ConsumerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_consumer_messages_total",
			Help: "Total number of stream messages by handling result",
		},
		[]string{"topic", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"service", "method", "route"},
	)
)
