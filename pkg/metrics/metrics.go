// Package metrics holds the domain collectors. HTTP and Kafka transport
// metrics live next to their middleware.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ClaimResultClaimed       = "claimed"
	ClaimResultAlreadyBooked = "already_booked"
	ClaimResultNotFound      = "not_found"
	ClaimResultError         = "error"
)

var (
	SlotClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_slot_claims_total",
			Help: "Slot claim attempts by result.",
		},
		[]string{"result"},
	)

	SlotReleases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carelink_slot_releases_total",
			Help: "Slot releases performed.",
		},
	)

	BookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_booking_transitions_total",
			Help: "Committed booking lifecycle transitions by resulting status.",
		},
		[]string{"status"},
	)

	BookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_booking_events_total",
			Help: "Booking lifecycle events handed to the publisher by result.",
		},
		[]string{"event_type", "result"},
	)

	SocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carelink_socket_connections",
			Help: "Currently open realtime connections.",
		},
	)

	SocketEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_socket_events_total",
			Help: "Inbound realtime events by name and outcome.",
		},
		[]string{"event", "outcome"},
	)

	SocketDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carelink_socket_dropped_total",
			Help: "Connections closed because their send buffer was full.",
		},
	)

	MessagesPosted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carelink_messages_posted_total",
			Help: "Chat messages persisted.",
		},
	)

	VisitUpdateFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_visit_update_failures_total",
			Help: "Visit bookkeeping writes that failed after the triggering change was committed.",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		SlotClaims,
		SlotReleases,
		BookingTransitions,
		BookingEvents,
		SocketConnections,
		SocketEvents,
		SocketDrops,
		MessagesPosted,
		VisitUpdateFailures,
	)
}
