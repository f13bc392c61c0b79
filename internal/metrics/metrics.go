package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReservationsTotal counts reserve attempts by outcome:
	// reserved, already_booked, fully_booked, class_not_found, busy, storage_failure.
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_reservations_total",
			Help: "Total number of reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_booking_transitions_total",
			Help: "Total number of booking status transitions by target status and outcome",
		},
		[]string{"status", "outcome"},
	)

	ClassLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classbook_class_lock_wait_seconds",
			Help:    "Time spent waiting for the per-class booking lock",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	ClassLockTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_class_lock_timeouts_total",
			Help: "Total number of reservations that gave up waiting for the class lock",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

func RecordTransition(status, outcome string) {
	BookingTransitionsTotal.WithLabelValues(status, outcome).Inc()
}

func RecordLockWait(seconds float64) {
	ClassLockWait.Observe(seconds)
}

func RecordLockTimeout() {
	ClassLockTimeoutsTotal.Inc()
}
