package repository

import (
	"context"
	"testing"
	"time"

	bookingserrors "carelink/internal/bookings/errors"
	"carelink/pkg/db/memory"
	"carelink/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mondayNine(providerID string) *model.Booking {
	return &model.Booking{
		UserID:     primitive.NewObjectID().Hex(),
		ProviderID: providerID,
		Day:        model.Monday,
		StartTime:  "09:00",
		EndTime:    "10:00",
		Status:     model.BookingStatusPending,
	}
}

func TestMemoryCreate_SlotHeldUntilCancelled(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantErr error
	}{
		{"pending", nil, bookingserrors.ErrSlotTaken},
		{"confirmed", []string{model.BookingStatusConfirmed}, bookingserrors.ErrSlotTaken},
		{"completed", []string{model.BookingStatusConfirmed, model.BookingStatusCompleted}, bookingserrors.ErrSlotTaken},
		{"cancelled", []string{model.BookingStatusCancelled}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewMemoryBookingRepository(memory.NewTransactionManager())
			providerID := primitive.NewObjectID().Hex()

			first := mondayNine(providerID)
			require.NoError(t, repo.Create(ctx, first))

			from := first.Status
			for _, status := range tt.path {
				_, err := repo.Transition(ctx, first.ID, from, StatusChange{Status: status, At: time.Now()})
				require.NoError(t, err)
				from = status
			}

			err := repo.Create(ctx, mondayNine(providerID))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMemoryTransition_RejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository(memory.NewTransactionManager())
	booking := mondayNine(primitive.NewObjectID().Hex())
	require.NoError(t, repo.Create(ctx, booking))

	_, err := repo.Transition(ctx, booking.ID, model.BookingStatusConfirmed, StatusChange{Status: model.BookingStatusCompleted, At: time.Now()})
	assert.ErrorIs(t, err, bookingserrors.ErrStatusChanged)

	_, err = repo.Transition(ctx, "bad-id", model.BookingStatusPending, StatusChange{Status: model.BookingStatusConfirmed, At: time.Now()})
	assert.ErrorIs(t, err, bookingserrors.ErrInvalidID)
}
