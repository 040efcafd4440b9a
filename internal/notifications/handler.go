package notifications

import (
	"context"
	"errors"

	"carelink/internal/bookings/events"
	"carelink/pkg/kafka"
	"carelink/pkg/logger"
)

var ErrMissingBookingID = errors.New("invalid message: booking id is missing")

type Handler struct {
	dispatcher Dispatcher
	log        *logger.Logger
}

func NewHandler(dispatcher Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
	}
}

// Handle is a kafka.MessageHandler. Undecodable payloads are permanent and
// go to the DLQ; dispatch failures are retried.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}
	if event.BookingID == "" {
		return kafka.NewPermanentError("invalid message", ErrMissingBookingID)
	}

	n, ok := Compose(event)
	if !ok {
		h.log.Debug("Skipping booking event", "event_type", event.Type, "booking_id", event.BookingID)
		return nil
	}

	if err := h.dispatcher.Dispatch(ctx, n); err != nil {
		return kafka.NewTransientError("dispatch failed", err).WithDetail("booking_id", event.BookingID)
	}
	return nil
}
