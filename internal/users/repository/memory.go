package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	userserrors "carelink/internal/users/errors"
	"carelink/pkg/auth"
	"carelink/pkg/db/memory"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[string]*model.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	} else if !primitive.IsValidObjectID(user.ID) {
		return userserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if user.Bookings == nil {
		user.Bookings = []string{}
	}
	stored := *user
	stored.Bookings = slices.Clone(user.Bookings)
	r.users[user.ID] = &stored

	id := user.ID
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.users, id)
	})
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, userserrors.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	c := *user
	c.Bookings = slices.Clone(user.Bookings)
	return &c, nil
}

func (r *memoryUserRepository) AppendBooking(ctx context.Context, userID, bookingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !primitive.IsValidObjectID(userID) {
		return userserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		user = &model.User{ID: userID, Role: auth.RoleUser, Bookings: []string{}, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
		r.users[userID] = user
		memory.RecordUndo(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.users, userID)
		})
	}
	if slices.Contains(user.Bookings, bookingID) {
		return nil
	}

	user.Bookings = append(user.Bookings, bookingID)
	memory.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if u, ok := r.users[userID]; ok {
			u.Bookings = slices.DeleteFunc(u.Bookings, func(id string) bool { return id == bookingID })
		}
	})
	return nil
}
