package validator

import (
	"fmt"
	"slices"
	"strings"

	"carelink/pkg/logger"
	"carelink/pkg/model"
	"carelink/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a booking request. When the date parses, its weekday must
// match day.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}

	date, err := model.ParseBookingDate(req.Date)
	if err != nil {
		return validation.ValidationErrors{{Field: "date", Message: "date must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}}
	}
	if weekday := date.Weekday().String(); weekday != req.Day {
		return validation.ValidationErrors{{
			Field:   "day",
			Message: fmt.Sprintf("day %s does not match date %s, which is a %s", req.Day, req.Date, weekday),
		}}
	}

	return nil
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateStatusUpdate(req *model.StatusUpdateRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}

	if !slices.Contains(model.UpdatableStatuses, req.Status) {
		return validation.ValidationErrors{{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of: %s", strings.Join(model.UpdatableStatuses, " ")),
		}}
	}
	return nil
}

// ValidateStatusFilter accepts an empty filter or any lifecycle status.
func (v *BookingValidator) ValidateStatusFilter(status string) error {
	switch status {
	case "", model.BookingStatusPending, model.BookingStatusConfirmed,
		model.BookingStatusCompleted, model.BookingStatusCancelled:
		return nil
	}
	return validation.ValidationErrors{{Field: "status", Message: "unknown booking status " + status}}
}
