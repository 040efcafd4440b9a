package model

import (
	"slices"
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// UpdatableStatuses are the targets accepted by a status update. Cancellation
// has its own operation.
var UpdatableStatuses = []string{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted}

// SlotHoldingStatuses are the statuses holding a slot. Only cancellation
// releases it, so a completed booking keeps the slot booked.
var SlotHoldingStatuses = []string{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted}

var statusTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

type Booking struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID             string     `json:"userId" bson:"user_id"`
	ProviderID         string     `json:"providerId" bson:"provider_id"`
	Date               time.Time  `json:"date" bson:"date"`
	Day                string     `json:"day" bson:"day"`
	StartTime          string     `json:"startTime" bson:"start_time"`
	EndTime            string     `json:"endTime" bson:"end_time"`
	Mode               string     `json:"mode" bson:"mode"`
	TherapyType        string     `json:"therapyType" bson:"therapy_type"`
	Notes              string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Status             string     `json:"status" bson:"status"`
	PaymentStatus      string     `json:"paymentStatus" bson:"payment_status"`
	Amount             float64    `json:"amount" bson:"amount"`
	MeetingLink        string     `json:"meetingLink,omitempty" bson:"meeting_link,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty" bson:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" bson:"updated_at"`
}

func (b *Booking) Slot() SlotKey {
	return SlotKey{
		ProviderID: b.ProviderID,
		Day:        b.Day,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
	}
}

func (b *Booking) IsTerminal() bool {
	return IsTerminalStatus(b.Status)
}

func IsTerminalStatus(status string) bool {
	return status == BookingStatusCancelled || status == BookingStatusCompleted
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(statusTransitions[from], to)
}

type BookingRequest struct {
	ProviderID  string `json:"providerId" validate:"required,mongodb"`
	Date        string `json:"date" validate:"required,booking_date"`
	Day         string `json:"day" validate:"required,weekday"`
	StartTime   string `json:"startTime" validate:"required,hhmm"`
	EndTime     string `json:"endTime" validate:"required,hhmm,after_start"`
	Mode        string `json:"mode" validate:"required,session_mode"`
	TherapyType string `json:"therapyType" validate:"required,min=2,max=100"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type CancelRequest struct {
	CancellationReason string `json:"cancellationReason,omitempty" validate:"omitempty,max=500"`
}

type StatusUpdateRequest struct {
	Status      string `json:"status" validate:"required"`
	MeetingLink string `json:"meetingLink,omitempty" validate:"omitempty,url,max=500"`
}

// BookingQuery scopes a listing. Empty fields do not filter.
type BookingQuery struct {
	UserID     string
	ProviderID string
	Status     string
	Limit      int
	Offset     int64
}

var bookingDateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseBookingDate accepts a calendar date or an RFC 3339 timestamp. The
// result keeps the offset it was written in, so Weekday is the requester's
// own calendar day.
func ParseBookingDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range bookingDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
