package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"carelink/internal/ledger"
	providerserrors "carelink/internal/providers/errors"
	"carelink/pkg/db/memory"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryProviderRepository struct {
	mu        sync.RWMutex
	providers map[string]*model.Provider
}

// NewMemoryProviderRepository returns an in-process store. Mutations made
// inside a memory unit of work are undone when the unit fails.
func NewMemoryProviderRepository() ProviderRepository {
	return &memoryProviderRepository{
		providers: make(map[string]*model.Provider),
	}
}

func (r *memoryProviderRepository) Create(ctx context.Context, provider *model.Provider) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Millisecond)
	provider.CreatedAt = now
	provider.UpdatedAt = now
	if provider.ID == "" {
		provider.ID = primitive.NewObjectID().Hex()
	}
	if provider.Reviews == nil {
		provider.Reviews = []model.Review{}
	}

	r.providers[provider.ID] = cloneProvider(provider)
	id := provider.ID
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.providers, id)
	})
	return nil
}

func (r *memoryProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, providerserrors.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[id]
	if !ok {
		return nil, providerserrors.ErrNotFound
	}
	return cloneProvider(provider), nil
}

func (r *memoryProviderRepository) FindBookable(ctx context.Context, filter model.ProviderFilter, limit int, offset int64) ([]*model.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := r.matching(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].ID < matched[j].ID
	})

	providers := []*model.Provider{}
	for i := offset; i < int64(len(matched)) && len(providers) < limit; i++ {
		p := matched[i]
		p.Reviews = nil
		providers = append(providers, p)
	}
	return providers, nil
}

func (r *memoryProviderRepository) CountBookable(ctx context.Context, filter model.ProviderFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(r.matching(filter))), nil
}

func (r *memoryProviderRepository) AddReview(ctx context.Context, providerID string, review model.Review) (*model.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(providerID) {
		return nil, providerserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, providerserrors.ErrNotFound
	}
	if provider.HasReviewFrom(review.UserID) {
		return nil, providerserrors.ErrDuplicateReview
	}

	previous := cloneProvider(provider)
	now := time.Now().UTC().Truncate(time.Millisecond)
	review.CreatedAt = now
	provider.Rating = provider.RatingWith(review.Rating)
	provider.Reviews = append(provider.Reviews, review)
	provider.ReviewCount = len(provider.Reviews)
	provider.UpdatedAt = now

	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.providers[providerID] = previous
	})
	return cloneProvider(provider), nil
}

func (r *memoryProviderRepository) ClaimSlot(ctx context.Context, key model.SlotKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slot(key)
	if slot == nil {
		return ledger.ErrSlotNotFound
	}
	if slot.IsBooked {
		return ledger.ErrSlotAlreadyBooked
	}

	slot.IsBooked = true
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if s := r.slot(key); s != nil {
			s.IsBooked = false
		}
	})
	return nil
}

func (r *memoryProviderRepository) ReleaseSlot(ctx context.Context, key model.SlotKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slot(key)
	if slot == nil || !slot.IsBooked {
		return false, nil
	}

	slot.IsBooked = false
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if s := r.slot(key); s != nil {
			s.IsBooked = true
		}
	})
	return true, nil
}

// slot must be called with r.mu held.
func (r *memoryProviderRepository) slot(key model.SlotKey) *model.Slot {
	provider, ok := r.providers[key.ProviderID]
	if !ok {
		return nil
	}
	for i := range provider.Availability {
		day := &provider.Availability[i]
		if day.Day != key.Day {
			continue
		}
		for j := range day.Slots {
			s := &day.Slots[j]
			if s.StartTime == key.StartTime && s.EndTime == key.EndTime {
				return s
			}
		}
	}
	return nil
}

func (r *memoryProviderRepository) matching(filter model.ProviderFilter) []*model.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Provider
	for _, p := range r.providers {
		if !p.Bookable() {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if len(filter.Modes) > 0 && !containsAny(p.Modes, filter.Modes) {
			continue
		}
		if len(filter.TherapyTypes) > 0 && !containsAny(p.TherapyTypes, filter.TherapyTypes) {
			continue
		}
		if filter.MinRating > 0 && p.Rating < filter.MinRating {
			continue
		}
		if filter.MaxRate > 0 && p.SessionRate > filter.MaxRate {
			continue
		}
		matched = append(matched, cloneProvider(p))
	}
	return matched
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

func cloneProvider(p *model.Provider) *model.Provider {
	c := *p
	c.Specialties = slices.Clone(p.Specialties)
	c.Modes = slices.Clone(p.Modes)
	c.TherapyTypes = slices.Clone(p.TherapyTypes)
	c.Reviews = slices.Clone(p.Reviews)
	c.Availability = make([]model.Availability, len(p.Availability))
	for i, a := range p.Availability {
		c.Availability[i] = model.Availability{Day: a.Day, Slots: slices.Clone(a.Slots)}
	}
	return &c
}
