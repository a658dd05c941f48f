// Package metrics declares the Prometheus collectors shared across the
// service. They register on the default registry and are served by
// promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RideTransitions counts successful ride state changes by target status.
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_transitions_total",
			Help: "Successful ride status transitions",
		},
		[]string{"status"},
	)

	// RideConflicts counts transitions rejected because the ride was in the wrong state.
	RideConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_transition_conflicts_total",
			Help: "Ride transitions rejected by a state conflict",
		},
		[]string{"operation"},
	)

	// Notifications counts notification attempts by event and outcome.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Real-time notifications by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	// SocketConnections is the number of open websocket connections.
	SocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "socket_connections",
			Help: "Open websocket connections",
		},
	)

	// OnlineDrivers is the number of drivers with a registered connection.
	OnlineDrivers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "online_drivers",
			Help: "Drivers with a registered live connection",
		},
	)

	// MapsRequests counts calls to the geocoding and routing providers.
	MapsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maps_requests_total",
			Help: "Requests to the mapping providers",
		},
		[]string{"endpoint", "status", "cached"},
	)

	// MapsRequestDuration observes provider latency.
	MapsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maps_request_duration_seconds",
			Help:    "Latency of mapping provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// Notification outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeMissed    = "missed"
	OutcomeDropped   = "dropped"
)

// TrackMapsRequest records one mapping provider call.
func TrackMapsRequest(endpoint, status string, cached bool, duration time.Duration) {
	MapsRequests.WithLabelValues(endpoint, status, strconv.FormatBool(cached)).Inc()
	if !cached {
		MapsRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

var (
	// HTTPRequests counts HTTP requests by route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration observes HTTP latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// HTTPRequestsInFlight is the number of requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)
