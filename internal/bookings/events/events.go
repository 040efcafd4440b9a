// Package events announces committed booking lifecycle changes.
package events

import (
	"context"
	"time"

	"carelink/pkg/model"
)

const (
	TypeCreated   = "booking.created"
	TypeConfirmed = "booking.confirmed"
	TypeCompleted = "booking.completed"
	TypeCancelled = "booking.cancelled"

	SchemaVersion = "1"
)

// TypeFor returns the event type announcing a move into status.
func TypeFor(status string) string {
	return "booking." + status
}

// BookingEvent is the payload published on the bookings topic.
type BookingEvent struct {
	Type               string    `json:"type"`
	BookingID          string    `json:"bookingId"`
	UserID             string    `json:"userId"`
	ProviderID         string    `json:"providerId"`
	Status             string    `json:"status"`
	Date               time.Time `json:"date"`
	Day                string    `json:"day"`
	StartTime          string    `json:"startTime"`
	EndTime            string    `json:"endTime"`
	Mode               string    `json:"mode"`
	MeetingLink        string    `json:"meetingLink,omitempty"`
	CancelledBy        string    `json:"cancelledBy,omitempty"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	ActorID            string    `json:"actorId"`
	ActorRole          string    `json:"actorRole"`
	OccurredAt         time.Time `json:"occurredAt"`
}

func NewBookingEvent(eventType string, booking *model.Booking, actorID, actorRole string) BookingEvent {
	return BookingEvent{
		Type:               eventType,
		BookingID:          booking.ID,
		UserID:             booking.UserID,
		ProviderID:         booking.ProviderID,
		Status:             booking.Status,
		Date:               booking.Date,
		Day:                booking.Day,
		StartTime:          booking.StartTime,
		EndTime:            booking.EndTime,
		Mode:               booking.Mode,
		MeetingLink:        booking.MeetingLink,
		CancelledBy:        booking.CancelledBy,
		CancellationReason: booking.CancellationReason,
		ActorID:            actorID,
		ActorRole:          actorRole,
		OccurredAt:         time.Now().UTC(),
	}
}

// Publisher delivers events after the change they describe has committed.
// Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, BookingEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
