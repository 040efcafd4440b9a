package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusPending, BookingStatusPending, false},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusConfirmed, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusPending, "archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for status, want := range map[string]bool{
		BookingStatusPending:   false,
		BookingStatusConfirmed: false,
		BookingStatusCompleted: true,
		BookingStatusCancelled: true,
	} {
		if got := IsTerminalStatus(status); got != want {
			t.Errorf("IsTerminalStatus(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestParseBookingDate(t *testing.T) {
	got, err := ParseBookingDate("2025-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %s", got.Weekday())
	}

	if _, err := ParseBookingDate("2025-03-10T09:00:00+02:00"); err != nil {
		t.Errorf("expected RFC 3339 to parse: %v", err)
	}
	late, err := ParseBookingDate("2025-03-10T21:00:00-05:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if late.Weekday() != time.Monday {
		t.Errorf("expected the weekday in the written offset, got %s", late.Weekday())
	}
	if _, err := ParseBookingDate("10/03/2025"); err == nil {
		t.Errorf("expected error for unsupported layout")
	}
}

func TestProvider_RatingWith(t *testing.T) {
	p := &Provider{Reviews: []Review{{UserID: "a", Rating: 4}, {UserID: "b", Rating: 5}}}

	if got := p.RatingWith(3); got != 4 {
		t.Errorf("RatingWith(3) = %v, want 4", got)
	}
	if !p.HasReviewFrom("a") || p.HasReviewFrom("c") {
		t.Errorf("HasReviewFrom returned unexpected result")
	}

	empty := &Provider{}
	if got := empty.RatingWith(5); got != 5 {
		t.Errorf("RatingWith on empty provider = %v, want 5", got)
	}
}

func TestBooking_Slot(t *testing.T) {
	b := &Booking{ProviderID: "p1", Day: Monday, StartTime: "09:00", EndTime: "10:00"}
	want := SlotKey{ProviderID: "p1", Day: Monday, StartTime: "09:00", EndTime: "10:00"}
	if b.Slot() != want {
		t.Errorf("Slot() = %+v, want %+v", b.Slot(), want)
	}
}
