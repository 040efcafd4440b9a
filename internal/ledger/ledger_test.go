package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"carelink/internal/ledger"
	"carelink/internal/providers/repository"
	"carelink/pkg/db/memory"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/logger"
	"carelink/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSlotStore struct {
	claimFunc   func(ctx context.Context, key model.SlotKey) error
	releaseFunc func(ctx context.Context, key model.SlotKey) (bool, error)
}

func (s *stubSlotStore) ClaimSlot(ctx context.Context, key model.SlotKey) error {
	return s.claimFunc(ctx, key)
}

func (s *stubSlotStore) ReleaseSlot(ctx context.Context, key model.SlotKey) (bool, error) {
	return s.releaseFunc(ctx, key)
}

func seedProvider(t *testing.T, repo repository.ProviderRepository) *model.Provider {
	t.Helper()
	p := &model.Provider{
		Name:        "Dr. Amani",
		SessionRate: 80,
		IsApproved:  true,
		IsActive:    true,
		Availability: []model.Availability{
			{Day: model.Monday, Slots: []model.Slot{
				{StartTime: "09:00", EndTime: "10:00"},
				{StartTime: "10:00", EndTime: "11:00"},
			}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func slotOf(p *model.Provider) model.SlotKey {
	return model.SlotKey{ProviderID: p.ID, Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}
}

func isBooked(t *testing.T, repo repository.ProviderRepository, key model.SlotKey) bool {
	t.Helper()
	p, err := repo.FindByID(context.Background(), key.ProviderID)
	require.NoError(t, err)
	for _, a := range p.Availability {
		if a.Day != key.Day {
			continue
		}
		for _, s := range a.Slots {
			if s.StartTime == key.StartTime && s.EndTime == key.EndTime {
				return s.IsBooked
			}
		}
	}
	t.Fatalf("slot %+v not found", key)
	return false
}

func TestClaim_FreeSlot(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	key := slotOf(seedProvider(t, repo))

	ref, err := l.Claim(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, ref.SlotKey)
	assert.False(t, ref.ClaimedAt.IsZero())
	assert.True(t, isBooked(t, repo, key))
}

func TestClaim_AlreadyBooked(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	key := slotOf(seedProvider(t, repo))

	_, err := l.Claim(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Claim(context.Background(), key)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestClaim_NotFound(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	p := seedProvider(t, repo)

	tests := []struct {
		name string
		key  model.SlotKey
	}{
		{"unknown provider", model.SlotKey{ProviderID: "64b7f0c2a1b2c3d4e5f60718", Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}},
		{"malformed provider id", model.SlotKey{ProviderID: "nope", Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}},
		{"wrong day", model.SlotKey{ProviderID: p.ID, Day: model.Tuesday, StartTime: "09:00", EndTime: "10:00"}},
		{"end time mismatch", model.SlotKey{ProviderID: p.ID, Day: model.Monday, StartTime: "09:00", EndTime: "09:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Claim(context.Background(), tt.key)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
		})
	}
}

func TestClaim_ConcurrentSingleWinner(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	key := slotOf(seedProvider(t, repo))

	const contenders = 32
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for n := 0; n < contenders; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := l.Claim(context.Background(), key)
			switch {
			case err == nil:
				wins.Add(1)
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(contenders-1), conflicts.Load())
}

func TestRelease_Idempotent(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	key := slotOf(seedProvider(t, repo))

	_, err := l.Claim(context.Background(), key)
	require.NoError(t, err)

	require.NoError(t, l.Release(context.Background(), key))
	require.NoError(t, l.Release(context.Background(), key))
	assert.False(t, isBooked(t, repo, key))

	_, err = l.Claim(context.Background(), key)
	assert.NoError(t, err)
}

func TestRelease_UnknownSlotIsNoop(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())

	err := l.Release(context.Background(), model.SlotKey{ProviderID: "nope", Day: model.Monday, StartTime: "09:00", EndTime: "10:00"})
	assert.NoError(t, err)
}

func TestClaim_RolledBackWithUnit(t *testing.T) {
	repo := repository.NewMemoryProviderRepository()
	l := ledger.New(repo, logger.Discard())
	key := slotOf(seedProvider(t, repo))
	tx := memory.NewTransactionManager()

	errBoom := errors.New("boom")
	err := tx.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := l.Claim(ctx, key); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.False(t, isBooked(t, repo, key))
}

func TestClaim_StoreFailure(t *testing.T) {
	store := &stubSlotStore{
		claimFunc: func(ctx context.Context, key model.SlotKey) error {
			return context.DeadlineExceeded
		},
		releaseFunc: func(ctx context.Context, key model.SlotKey) (bool, error) {
			return false, errors.New("connection reset")
		},
	}
	l := ledger.New(store, logger.Discard())
	key := model.SlotKey{ProviderID: "p", Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}

	_, err := l.Claim(context.Background(), key)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimeout))

	err = l.Release(context.Background(), key)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
}
