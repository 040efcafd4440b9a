package service

import (
	"context"
	"testing"

	"carelink/internal/providers/repository"
	"carelink/internal/providers/validator"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/logger"
	"carelink/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (ProviderService, repository.ProviderRepository) {
	t.Helper()
	cfg := &config.Config{Log: logger.Discard()}
	repo := repository.NewMemoryProviderRepository()
	return NewProviderService(repo, validator.NewProviderValidator(cfg.Log), cfg), repo
}

func mustCreate(t *testing.T, svc ProviderService, p *model.Provider) *model.Provider {
	t.Helper()
	require.NoError(t, svc.Create(context.Background(), p))
	return p
}

func bookableProvider(name, location string, rate float64, modes ...string) *model.Provider {
	return &model.Provider{
		Name:         name,
		Location:     location,
		Modes:        modes,
		TherapyTypes: []string{"Cognitive Behavioral Therapy"},
		SessionRate:  rate,
		IsApproved:   true,
		IsActive:     true,
		Availability: []model.Availability{
			{Day: model.Monday, Slots: []model.Slot{{StartTime: "09:00", EndTime: "10:00"}}},
		},
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, bookableProvider("Dr. Amani", "Nairobi, Kenya", 80, model.ModeVideo))
	mustCreate(t, svc, bookableProvider("Dr. Baraka", "Mombasa", 60, model.ModeInPerson))
	hidden := bookableProvider("Dr. Chebet", "Nairobi", 50, model.ModeVideo)
	hidden.IsApproved = false
	mustCreate(t, svc, hidden)

	tests := []struct {
		name   string
		filter model.ProviderFilter
		want   []string
	}{
		{"no filter lists bookable only", model.ProviderFilter{}, []string{"Dr. Amani", "Dr. Baraka"}},
		{"location is case insensitive substring", model.ProviderFilter{Location: "nairobi"}, []string{"Dr. Amani"}},
		{"modes match on overlap", model.ProviderFilter{Modes: []string{model.ModeInPerson, model.ModePhone}}, []string{"Dr. Baraka"}},
		{"max rate", model.ProviderFilter{MaxRate: 70}, []string{"Dr. Baraka"}},
		{"nothing matches", model.ProviderFilter{Location: "Kisumu"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, total, err := svc.Search(ctx, tt.filter, 0, 0)
			require.NoError(t, err)

			var names []string
			for _, p := range providers {
				names = append(names, p.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestSearch_InvalidMode(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Search(context.Background(), model.ProviderFilter{Modes: []string{"Telepathy"}}, 10, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	visible := mustCreate(t, svc, bookableProvider("Dr. Amani", "Nairobi", 80, model.ModeVideo))
	inactive := bookableProvider("Dr. Baraka", "Nairobi", 80, model.ModeVideo)
	inactive.IsActive = false
	mustCreate(t, svc, inactive)

	got, err := svc.GetByID(ctx, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Amani", got.Name)

	for _, id := range []string{inactive.ID, "64b7f0c2a1b2c3d4e5f60718", "not-an-id"} {
		_, err := svc.GetByID(ctx, id)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), id)
	}

	availability, err := svc.GetAvailability(ctx, visible.ID)
	require.NoError(t, err)
	require.Len(t, availability, 1)
	assert.Equal(t, model.Monday, availability[0].Day)
}

func TestAddReview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, bookableProvider("Dr. Amani", "Nairobi", 80, model.ModeVideo))

	first := auth.Principal{ID: "user-1", Role: auth.RoleUser}
	second := auth.Principal{ID: "user-2", Role: auth.RoleUser}

	updated, err := svc.AddReview(ctx, first, p.ID, &model.ReviewRequest{Rating: 5, Comment: "  Very kind  "})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.Rating)
	assert.Equal(t, 1, updated.ReviewCount)
	assert.Equal(t, "Very kind", updated.Reviews[0].Comment)

	updated, err = svc.AddReview(ctx, second, p.ID, &model.ReviewRequest{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 3.5, updated.Rating)
	assert.Equal(t, 2, updated.ReviewCount)

	_, err = svc.AddReview(ctx, first, p.ID, &model.ReviewRequest{Rating: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	after, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, after.Rating)
}

func TestAddReview_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, bookableProvider("Dr. Amani", "Nairobi", 80, model.ModeVideo))

	tests := []struct {
		name      string
		principal auth.Principal
		req       model.ReviewRequest
		code      string
	}{
		{"provider cannot review", auth.Principal{ID: p.ID, Role: auth.RoleProvider}, model.ReviewRequest{Rating: 5}, apperrors.CodeForbidden},
		{"anonymous", auth.Principal{}, model.ReviewRequest{Rating: 5}, apperrors.CodeUnauthorized},
		{"rating out of range", auth.Principal{ID: "u", Role: auth.RoleUser}, model.ReviewRequest{Rating: 6}, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddReview(ctx, tt.principal, p.ID, &tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestCreate_RejectsDuplicateSlots(t *testing.T) {
	svc, _ := newTestService(t)
	p := bookableProvider("Dr. Amani", "Nairobi", 80, model.ModeVideo)
	p.Availability[0].Slots = append(p.Availability[0].Slots, model.Slot{StartTime: "09:00", EndTime: "10:00"})

	err := svc.Create(context.Background(), p)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
