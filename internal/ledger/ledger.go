// Package ledger grants provider slots exclusively. A slot is claimed by a
// single conditional update in the slot store, so two concurrent claims on the
// same (provider, day, start, end) never both succeed.
package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "carelink/pkg/errors"
	"carelink/pkg/logger"
	"carelink/pkg/metrics"
	"carelink/pkg/model"
)

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotAlreadyBooked = errors.New("slot already booked")
)

// SlotStore is the persistence side of the ledger. ClaimSlot must flip a free
// slot to booked atomically and report ErrSlotNotFound or ErrSlotAlreadyBooked
// otherwise. ReleaseSlot reports whether a booked slot was freed.
type SlotStore interface {
	ClaimSlot(ctx context.Context, key model.SlotKey) error
	ReleaseSlot(ctx context.Context, key model.SlotKey) (bool, error)
}

type Ledger interface {
	Claim(ctx context.Context, key model.SlotKey) (*model.SlotRef, error)
	Release(ctx context.Context, key model.SlotKey) error
}

type slotLedger struct {
	store SlotStore
	log   *logger.Logger
	now   func() time.Time
}

func New(store SlotStore, log *logger.Logger) Ledger {
	return &slotLedger{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *slotLedger) Claim(ctx context.Context, key model.SlotKey) (*model.SlotRef, error) {
	err := l.store.ClaimSlot(ctx, key)
	switch {
	case err == nil:
		metrics.SlotClaims.WithLabelValues(metrics.ClaimResultClaimed).Inc()
		l.log.Debug("Slot claimed", slotAttrs(key)...)
		return &model.SlotRef{SlotKey: key, ClaimedAt: l.now()}, nil

	case errors.Is(err, ErrSlotNotFound):
		metrics.SlotClaims.WithLabelValues(metrics.ClaimResultNotFound).Inc()
		return nil, apperrors.NotFound("Time slot").WithDetails(slotDetails(key))

	case errors.Is(err, ErrSlotAlreadyBooked):
		metrics.SlotClaims.WithLabelValues(metrics.ClaimResultAlreadyBooked).Inc()
		l.log.Info("Slot claim lost", slotAttrs(key)...)
		return nil, apperrors.Conflict("Time slot is already booked").WithDetails(slotDetails(key))

	default:
		metrics.SlotClaims.WithLabelValues(metrics.ClaimResultError).Inc()
		if apperrors.IsAppError(err) {
			return nil, err
		}
		l.log.Error("Slot claim failed", append(slotAttrs(key), "error", err)...)
		return nil, apperrors.Dependency("Slot ledger", err)
	}
}

// Release frees the slot. Releasing a free or unknown slot is a no-op.
func (l *slotLedger) Release(ctx context.Context, key model.SlotKey) error {
	released, err := l.store.ReleaseSlot(ctx, key)
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		l.log.Error("Slot release failed", append(slotAttrs(key), "error", err)...)
		return apperrors.Dependency("Slot ledger", err)
	}

	if released {
		metrics.SlotReleases.Inc()
		l.log.Debug("Slot released", slotAttrs(key)...)
	}
	return nil
}

func slotAttrs(key model.SlotKey) []any {
	return []any{
		"provider_id", key.ProviderID,
		"day", key.Day,
		"start_time", key.StartTime,
		"end_time", key.EndTime,
	}
}

func slotDetails(key model.SlotKey) map[string]any {
	return map[string]any{
		"providerId": key.ProviderID,
		"day":        key.Day,
		"startTime":  key.StartTime,
		"endTime":    key.EndTime,
	}
}
