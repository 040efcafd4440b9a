package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "carelink/internal/bookings/errors"
	"carelink/pkg/db"
	"carelink/pkg/db/memory"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryBookingRepository struct {
	mu        sync.RWMutex
	bookings  map[string]*model.Booking
	txManager db.TransactionManager
}

// NewMemoryBookingRepository returns an in-process store. It enforces the same
// one-non-cancelled-booking-per-slot rule as the partial unique index in mongo.
func NewMemoryBookingRepository(txManager *memory.TransactionManager) BookingRepository {
	return &memoryBookingRepository{
		bookings:  make(map[string]*model.Booking),
		txManager: txManager,
	}
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(model.SlotHoldingStatuses, booking.Status) {
		for _, b := range r.bookings {
			if b.Slot() == booking.Slot() && slices.Contains(model.SlotHoldingStatuses, b.Status) {
				return bookingserrors.ErrSlotTaken
			}
		}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}

	stored := *booking
	r.bookings[booking.ID] = &stored

	id := booking.ID
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.bookings, id)
	})
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	c := *booking
	return &c, nil
}

func (r *memoryBookingRepository) Find(ctx context.Context, query model.BookingQuery) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := r.matching(query)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime > b.StartTime
		}
		return a.ID > b.ID
	})

	bookings := []*model.Booking{}
	for i := query.Offset; i < int64(len(matched)) && len(bookings) < query.Limit; i++ {
		bookings = append(bookings, matched[i])
	}
	return bookings, nil
}

func (r *memoryBookingRepository) Count(ctx context.Context, query model.BookingQuery) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(r.matching(query))), nil
}

func (r *memoryBookingRepository) Transition(ctx context.Context, id, from string, change StatusChange) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, bookingserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if booking.Status != from {
		return nil, bookingserrors.ErrStatusChanged
	}

	previous := *booking
	at := change.At.UTC().Truncate(time.Millisecond)
	booking.Status = change.Status
	booking.UpdatedAt = at
	if change.MeetingLink != "" {
		booking.MeetingLink = change.MeetingLink
	}
	if change.Status == model.BookingStatusCancelled {
		booking.CancelledBy = change.CancelledBy
		booking.CancelledAt = &at
		if change.CancellationReason != "" {
			booking.CancellationReason = change.CancellationReason
		}
	}

	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.bookings[id] = &previous
	})

	c := *booking
	return &c, nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *memoryBookingRepository) matching(query model.BookingQuery) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Booking
	for _, b := range r.bookings {
		if query.UserID != "" && b.UserID != query.UserID {
			continue
		}
		if query.ProviderID != "" && b.ProviderID != query.ProviderID {
			continue
		}
		if query.Status != "" && b.Status != query.Status {
			continue
		}
		c := *b
		matched = append(matched, &c)
	}
	return matched
}
