package repository

import (
	"context"
	"errors"
	"testing"

	userserrors "carelink/internal/users/errors"
	"carelink/pkg/auth"
	"carelink/pkg/db/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAppendBooking_CreatesRequesterOnFirstBooking(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	userID := primitive.NewObjectID().Hex()

	require.NoError(t, repo.AppendBooking(ctx, userID, "booking-1"))
	require.NoError(t, repo.AppendBooking(ctx, userID, "booking-2"))
	require.NoError(t, repo.AppendBooking(ctx, userID, "booking-1"))

	user, err := repo.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.Equal(t, []string{"booking-1", "booking-2"}, user.Bookings)

	assert.ErrorIs(t, repo.AppendBooking(ctx, "nope", "booking-3"), userserrors.ErrInvalidID)
}

func TestAppendBooking_RollsBackWithUnit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	tm := memory.NewTransactionManager()
	known := primitive.NewObjectID().Hex()
	fresh := primitive.NewObjectID().Hex()

	require.NoError(t, repo.AppendBooking(ctx, known, "booking-1"))

	boom := errors.New("insert failed")
	err := tm.ExecuteTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.AppendBooking(ctx, known, "booking-2"))
		require.NoError(t, repo.AppendBooking(ctx, fresh, "booking-3"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, err := repo.FindByID(ctx, known)
	require.NoError(t, err)
	assert.Equal(t, []string{"booking-1"}, user.Bookings)

	_, err = repo.FindByID(ctx, fresh)
	assert.ErrorIs(t, err, userserrors.ErrNotFound)
}
