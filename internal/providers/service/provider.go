package service

import (
	"context"
	"errors"
	"sync"

	providerserrors "carelink/internal/providers/errors"
	"carelink/internal/providers/repository"
	"carelink/internal/providers/validator"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/model"
	"carelink/pkg/sanitizer"
)

type ProviderService interface {
	Create(ctx context.Context, provider *model.Provider) error
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	GetAvailability(ctx context.Context, id string) ([]model.Availability, error)
	Search(ctx context.Context, filter model.ProviderFilter, limit int, offset int64) ([]*model.Provider, int64, error)
	AddReview(ctx context.Context, principal auth.Principal, providerID string, req *model.ReviewRequest) (*model.Provider, error)
}

type providerService struct {
	repo      repository.ProviderRepository
	validator *validator.ProviderValidator
	cfg       *config.Config
}

func NewProviderService(
	repo repository.ProviderRepository,
	validator *validator.ProviderValidator,
	cfg *config.Config,
) ProviderService {
	return &providerService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create stores a provider document. It backs seeding and administrative
// onboarding; there is no public route for it.
func (s *providerService) Create(ctx context.Context, provider *model.Provider) error {
	s.sanitize(provider)
	if err := s.validator.ValidateProvider(provider); err != nil {
		s.cfg.Log.Warn("Provider validation failed", "name", provider.Name, "error", err)
		return apperrors.Validation("Invalid provider", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, provider); err != nil {
		s.cfg.Log.Error("Failed to create provider", "name", provider.Name, "error", err)
		return apperrors.Dependency("Provider store", err)
	}

	s.cfg.Log.Info("Provider created", "id", provider.ID, "name", provider.Name)
	return nil
}

// GetByID returns a bookable provider. Unapproved or inactive providers are
// reported as not found.
func (s *providerService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}

	if !provider.Bookable() {
		return nil, apperrors.NotFoundWithID("Provider", id)
	}
	return provider, nil
}

func (s *providerService) GetAvailability(ctx context.Context, id string) ([]model.Availability, error) {
	provider, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if provider.Availability == nil {
		return []model.Availability{}, nil
	}
	return provider.Availability, nil
}

func (s *providerService) Search(ctx context.Context, filter model.ProviderFilter, limit int, offset int64) ([]*model.Provider, int64, error) {
	filter.Location = sanitizer.NormalizeLocation(filter.Location)
	filter.Modes = sanitizer.NormalizeValues(filter.Modes)
	filter.TherapyTypes = sanitizer.NormalizeValues(filter.TherapyTypes)

	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, apperrors.Validation("Invalid provider filter", map[string]any{"error": err.Error()})
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var providers []*model.Provider
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountBookable(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count providers", "error", errCount)
			errCount = apperrors.Dependency("Provider store", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		providers, errFind = s.repo.FindBookable(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list providers", "error", errFind)
			errFind = apperrors.Dependency("Provider store", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return providers, count, nil
}

// AddReview records one review per user and returns the provider with its
// recomputed rating.
func (s *providerService) AddReview(ctx context.Context, principal auth.Principal, providerID string, req *model.ReviewRequest) (*model.Provider, error) {
	if principal.ID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if principal.Role != auth.RoleUser {
		return nil, apperrors.Forbidden("Only users can review providers")
	}

	req.Comment = sanitizer.SanitizeText(req.Comment)
	if err := s.validator.ValidateReview(req); err != nil {
		return nil, apperrors.Validation("Invalid review", map[string]any{"error": err.Error()})
	}

	if _, err := s.GetByID(ctx, providerID); err != nil {
		return nil, err
	}

	provider, err := s.repo.AddReview(ctx, providerID, model.Review{
		UserID:  principal.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		if errors.Is(err, providerserrors.ErrDuplicateReview) {
			return nil, apperrors.Conflict("You have already reviewed this provider")
		}
		return nil, s.mapFindError(providerID, err)
	}

	s.cfg.Log.Info("Provider reviewed",
		"provider_id", providerID,
		"user_id", principal.ID,
		"rating", req.Rating,
		"new_rating", provider.Rating,
	)
	return provider, nil
}

func (s *providerService) sanitize(provider *model.Provider) {
	provider.Name = sanitizer.NormalizeName(provider.Name)
	provider.Location = sanitizer.NormalizeLocation(provider.Location)
	provider.Bio = sanitizer.SanitizeText(provider.Bio)
	provider.Specialties = sanitizer.NormalizeValues(provider.Specialties)
	provider.Modes = sanitizer.NormalizeValues(provider.Modes)
	provider.TherapyTypes = sanitizer.NormalizeValues(provider.TherapyTypes)
}

func (s *providerService) mapFindError(id string, err error) error {
	switch {
	case errors.Is(err, providerserrors.ErrNotFound), errors.Is(err, providerserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Provider", id)
	case apperrors.IsAppError(err):
		return err
	default:
		s.cfg.Log.Error("Failed to retrieve provider", "id", id, "error", err)
		return apperrors.Dependency("Provider store", err)
	}
}
