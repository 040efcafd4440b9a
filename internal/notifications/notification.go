// Package notifications turns booking lifecycle events into messages for the
// requester and the provider.
package notifications

import (
	"context"
	"fmt"

	"carelink/internal/bookings/events"
	"carelink/pkg/logger"
)

// Notification is what an email sender would deliver.
type Notification struct {
	BookingID  string
	EventType  string
	Recipients []string
	Subject    string
	Body       string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Compose builds the notification for a booking event. ok is false for
// event types nobody is notified about.
func Compose(event events.BookingEvent) (n Notification, ok bool) {
	when := fmt.Sprintf("%s %s, %s-%s", event.Day, event.Date.Format("2006-01-02"), event.StartTime, event.EndTime)

	n = Notification{
		BookingID:  event.BookingID,
		EventType:  event.Type,
		Recipients: []string{event.UserID, event.ProviderID},
	}

	switch event.Type {
	case events.TypeCreated:
		n.Subject = "Session requested"
		n.Body = fmt.Sprintf("A %s session was requested for %s. It is pending provider confirmation.", event.Mode, when)
	case events.TypeConfirmed:
		n.Subject = "Session confirmed"
		n.Body = fmt.Sprintf("Your %s session on %s is confirmed.", event.Mode, when)
		if event.MeetingLink != "" {
			n.Body += " Join at " + event.MeetingLink
		}
	case events.TypeCompleted:
		n.Subject = "Session completed"
		n.Body = fmt.Sprintf("The session on %s was marked completed.", when)
		n.Recipients = []string{event.UserID}
	case events.TypeCancelled:
		n.Subject = "Session cancelled"
		n.Body = fmt.Sprintf("The session on %s was cancelled by the %s.", when, event.CancelledBy)
		if event.CancellationReason != "" {
			n.Body += " Reason: " + event.CancellationReason
		}
	default:
		return Notification{}, false
	}
	return n, true
}

type logDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher logs every notification instead of sending it.
func NewLogDispatcher(log *logger.Logger) Dispatcher {
	return &logDispatcher{log: log}
}

func (d *logDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.log.Info("Notification dispatched",
		"booking_id", n.BookingID,
		"event_type", n.EventType,
		"recipients", n.Recipients,
		"subject", n.Subject,
	)
	return nil
}
