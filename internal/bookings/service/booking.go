package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	bookingserrors "carelink/internal/bookings/errors"
	"carelink/internal/bookings/events"
	"carelink/internal/bookings/repository"
	"carelink/internal/bookings/validator"
	"carelink/internal/ledger"
	providerserrors "carelink/internal/providers/errors"
	providersrepo "carelink/internal/providers/repository"
	userserrors "carelink/internal/users/errors"
	usersrepo "carelink/internal/users/repository"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/metrics"
	"carelink/pkg/model"
	"carelink/pkg/sanitizer"
	"carelink/pkg/validation"
)

type BookingService interface {
	Create(ctx context.Context, principal auth.Principal, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, principal auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error)
	UpdateStatus(ctx context.Context, principal auth.Principal, id string, req *model.StatusUpdateRequest) (*model.Booking, error)
	GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error)
	List(ctx context.Context, principal auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	providers providersrepo.ProviderRepository
	users     usersrepo.UserRepository
	ledger    ledger.Ledger
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	providers providersrepo.ProviderRepository,
	users usersrepo.UserRepository,
	slots ledger.Ledger,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		providers: providers,
		users:     users,
		ledger:    slots,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create reserves the requested slot and records a pending booking. The
// provider check, slot claim, insert and requester update commit together or
// not at all.
func (s *bookingService) Create(ctx context.Context, principal auth.Principal, req *model.BookingRequest) (*model.Booking, error) {
	if err := requireIdentity(principal); err != nil {
		return nil, err
	}
	if principal.Role != auth.RoleUser {
		return nil, apperrors.Forbidden("Only users can book sessions")
	}

	req.TherapyType = sanitizer.TrimAndNormalize(req.TherapyType)
	req.Notes = sanitizer.SanitizeText(req.Notes)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", principal.ID, "error", err)
		return nil, validation.ToAppError(err)
	}
	date, _ := model.ParseBookingDate(req.Date)

	ctx, cancel := s.unitContext(ctx)
	defer cancel()

	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		// The unit may be retried by the store, so every attempt starts fresh.
		booking = nil

		provider, err := s.providers.FindByID(txCtx, req.ProviderID)
		if err != nil {
			if errors.Is(err, providerserrors.ErrNotFound) || errors.Is(err, providerserrors.ErrInvalidID) {
				return providerUnavailable(req.ProviderID)
			}
			return apperrors.Dependency("Provider store", err)
		}
		if !provider.Bookable() {
			return providerUnavailable(req.ProviderID)
		}

		candidate := &model.Booking{
			UserID:        principal.ID,
			ProviderID:    provider.ID,
			Date:          date.UTC(),
			Day:           req.Day,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Mode:          req.Mode,
			TherapyType:   req.TherapyType,
			Notes:         req.Notes,
			Status:        model.BookingStatusPending,
			PaymentStatus: model.PaymentStatusPending,
			Amount:        provider.SessionRate,
		}

		if _, err := s.ledger.Claim(txCtx, candidate.Slot()); err != nil {
			return err
		}

		if err := s.repo.Create(txCtx, candidate); err != nil {
			if errors.Is(err, bookingserrors.ErrSlotTaken) {
				return apperrors.Conflict("Time slot is already booked")
			}
			return apperrors.Dependency("Booking store", err)
		}

		if err := s.users.AppendBooking(txCtx, principal.ID, candidate.ID); err != nil {
			if !errors.Is(err, userserrors.ErrInvalidID) {
				return apperrors.Dependency("User store", err)
			}
			s.cfg.Log.Warn("Requester id is not a store id, booking not linked to a user record",
				"user_id", principal.ID,
				"booking_id", candidate.ID,
			)
		}

		booking = candidate
		return nil
	})
	if err != nil {
		return nil, s.unitError("create", err)
	}

	metrics.BookingTransitions.WithLabelValues(booking.Status).Inc()
	s.cfg.Log.Info("Booking created",
		"booking_id", booking.ID,
		"user_id", booking.UserID,
		"provider_id", booking.ProviderID,
		"day", booking.Day,
		"start_time", booking.StartTime,
	)

	s.publish(ctx, events.TypeCreated, booking, principal)
	return booking, nil
}

// Cancel releases the booking's slot and moves it to cancelled.
func (s *bookingService) Cancel(ctx context.Context, principal auth.Principal, id string, req *model.CancelRequest) (*model.Booking, error) {
	if err := requireIdentity(principal); err != nil {
		return nil, err
	}
	if req == nil {
		req = &model.CancelRequest{}
	}
	req.CancellationReason = sanitizer.SanitizeText(req.CancellationReason)
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, validation.ToAppError(err)
	}

	ctx, cancel := s.unitContext(ctx)
	defer cancel()

	var cancelled *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		cancelled = nil

		booking, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return s.mapFindError(id, err)
		}

		if !canCancel(principal, booking) {
			return apperrors.Forbidden("You are not allowed to cancel this booking")
		}
		if booking.IsTerminal() {
			return apperrors.InvalidState(fmt.Sprintf("Cannot cancel %s booking", booking.Status))
		}

		if err := s.ledger.Release(txCtx, booking.Slot()); err != nil {
			return err
		}

		updated, err := s.repo.Transition(txCtx, id, booking.Status, repository.StatusChange{
			Status:             model.BookingStatusCancelled,
			CancelledBy:        principal.Role,
			CancellationReason: req.CancellationReason,
			At:                 s.now(),
		})
		if err != nil {
			return s.mapTransitionError(id, err)
		}

		cancelled = updated
		return nil
	})
	if err != nil {
		return nil, s.unitError("cancel", err)
	}

	metrics.BookingTransitions.WithLabelValues(cancelled.Status).Inc()
	s.cfg.Log.Info("Booking cancelled",
		"booking_id", cancelled.ID,
		"cancelled_by", cancelled.CancelledBy,
		"actor_id", principal.ID,
	)

	s.publish(ctx, events.TypeCancelled, cancelled, principal)
	return cancelled, nil
}

// UpdateStatus moves a booking along pending -> confirmed -> completed. Only
// the owning provider or an admin may do so.
func (s *bookingService) UpdateStatus(ctx context.Context, principal auth.Principal, id string, req *model.StatusUpdateRequest) (*model.Booking, error) {
	if err := requireIdentity(principal); err != nil {
		return nil, err
	}
	if !principal.HasRole(auth.RoleProvider, auth.RoleAdmin) {
		return nil, apperrors.Forbidden("Only providers and admins can update booking status")
	}

	req.Status = sanitizer.TrimAndNormalize(req.Status)
	if link := sanitizer.SanitizeURL(req.MeetingLink); link != "" {
		req.MeetingLink = link
	}
	if err := s.validator.ValidateStatusUpdate(req); err != nil {
		return nil, validation.ToAppError(err)
	}

	ctx, cancel := s.unitContext(ctx)
	defer cancel()

	var updated *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		updated = nil

		booking, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return s.mapFindError(id, err)
		}

		if !principal.IsAdmin() && booking.ProviderID != principal.ID {
			return apperrors.Forbidden("You are not allowed to update this booking")
		}
		if !model.CanTransition(booking.Status, req.Status) {
			return apperrors.InvalidState(fmt.Sprintf("Cannot change booking status from %s to %s", booking.Status, req.Status))
		}

		result, err := s.repo.Transition(txCtx, id, booking.Status, repository.StatusChange{
			Status:      req.Status,
			MeetingLink: req.MeetingLink,
			At:          s.now(),
		})
		if err != nil {
			return s.mapTransitionError(id, err)
		}

		updated = result
		return nil
	})
	if err != nil {
		return nil, s.unitError("update_status", err)
	}

	metrics.BookingTransitions.WithLabelValues(updated.Status).Inc()
	s.cfg.Log.Info("Booking status updated",
		"booking_id", updated.ID,
		"status", updated.Status,
		"actor_id", principal.ID,
	)

	s.publish(ctx, events.TypeFor(updated.Status), updated, principal)
	return updated, nil
}

func (s *bookingService) GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error) {
	if err := requireIdentity(principal); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(id, err)
	}

	if !canView(principal, booking) {
		return nil, apperrors.Forbidden("You are not allowed to view this booking")
	}
	return booking, nil
}

// List returns the caller's bookings: their own for users, their case-load
// for providers and everything for admins.
func (s *bookingService) List(ctx context.Context, principal auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := requireIdentity(principal); err != nil {
		return nil, 0, err
	}

	status = sanitizer.TrimAndNormalize(status)
	if err := s.validator.ValidateStatusFilter(status); err != nil {
		return nil, 0, validation.ToAppError(err)
	}

	query := model.BookingQuery{
		Status: status,
		Limit:  config.NormalizePaginationLimit(limit),
		Offset: config.NormalizeOffset(offset),
	}
	switch principal.Role {
	case auth.RoleUser:
		query.UserID = principal.ID
	case auth.RoleProvider:
		query.ProviderID = principal.ID
	case auth.RoleAdmin:
	default:
		return nil, 0, apperrors.Forbidden("Unknown role")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, query)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Dependency("Booking store", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.Find(ctx, query)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Dependency("Booking store", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// unitContext detaches a unit of work from the caller's cancellation so a
// dropped client cannot abort a commit halfway.
func (s *bookingService) unitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.TransactionTimeout
	if timeout <= 0 {
		timeout = config.DefaultTransactionTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (s *bookingService) unitError(operation string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error("Booking unit of work failed", "operation", operation, "error", err)
	return apperrors.Dependency("Booking store", err)
}

// publish announces a committed change. Delivery failures are logged and
// never undo the change.
func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, principal auth.Principal) {
	event := events.NewBookingEvent(eventType, booking, principal.ID, principal.Role)
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.BookingEvents.WithLabelValues(eventType, "error").Inc()
		s.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}
	metrics.BookingEvents.WithLabelValues(eventType, "published").Inc()
}

func (s *bookingService) mapFindError(id string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound), errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Booking", id)
	case apperrors.IsAppError(err):
		return err
	default:
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return apperrors.Dependency("Booking store", err)
	}
}

func (s *bookingService) mapTransitionError(id string, err error) error {
	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		return apperrors.Conflict("Booking was modified concurrently, please retry")
	}
	return s.mapFindError(id, err)
}

func requireIdentity(principal auth.Principal) error {
	if principal.ID == "" {
		return apperrors.Unauthorized("Authentication required")
	}
	return nil
}

func providerUnavailable(id string) error {
	return apperrors.New(apperrors.CodeNotFound, "Provider not available", http.StatusNotFound).
		WithDetails(map[string]any{"id": id})
}

func canCancel(principal auth.Principal, booking *model.Booking) bool {
	return canView(principal, booking)
}

func canView(principal auth.Principal, booking *model.Booking) bool {
	switch principal.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleUser:
		return booking.UserID == principal.ID
	case auth.RoleProvider:
		return booking.ProviderID == principal.ID
	}
	return false
}
