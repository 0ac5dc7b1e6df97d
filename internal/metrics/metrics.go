package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brightnest",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brightnest",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by type.",
		},
		[]string{"type"},
	)

	BookingsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "brightnest",
			Name:      "bookings_created_total",
			Help:      "Bookings recorded, by recurrence plan.",
		},
		[]string{"recurring_type"},
	)

	CalendarSyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "brightnest",
			Name:      "calendar_sync_failures_total",
			Help:      "Calendar mirror operations that gave up after retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(HTTPRequests, WebhookEventsTotal, BookingsCreatedTotal, CalendarSyncFailures)
	})
}

// IncHTTP increments the request counter for an endpoint and status code.
func IncHTTP(endpoint, code string) {
	HTTPRequests.WithLabelValues(endpoint, code).Inc()
}
