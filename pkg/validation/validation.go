// Package validation wires go-playground/validator with the domain tags shared
// by the request validators and renders failures as AppErrors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	apperrors "carelink/pkg/errors"
	"carelink/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	hhmmRegex      = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	pseudonymRegex = regexp.MustCompile(`^[\p{L}\p{N}_\-. ]{2,30}$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// AppError renders the list as a ValidationError AppError.
func (v ValidationErrors) AppError() *apperrors.AppError {
	return apperrors.Validation(v.Error(), map[string]any{"errors": []ValidationError(v)})
}

// New returns a validator with the domain tags registered. Field names in
// errors follow the json tag.
func New() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	tags := map[string]validator.Func{
		"hhmm":          validateHHMM,
		"weekday":       validateWeekday,
		"session_mode":  validateSessionMode,
		"booking_date":  validateBookingDate,
		"after_start":   validateAfterStart,
		"reaction_kind": validateReactionKind,
		"pseudonym":     validatePseudonym,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q validator: %w", tag, err)
		}
	}
	return v, nil
}

// Struct validates s and translates any failure into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

// ToAppError converts validation failures to an AppError, passing other errors through.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationErrs.AppError()
	}
	return apperrors.Validation(err.Error(), nil)
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM format (00:00-23:59)", err.Field())
		case "weekday":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), strings.Join(model.Weekdays, " "))
		case "session_mode":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), strings.Join(model.SessionModes, " "))
		case "booking_date":
			message = fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", err.Field())
		case "after_start":
			message = fmt.Sprintf("%s must be after startTime", err.Field())
		case "reaction_kind":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), strings.Join(model.ReactionKinds, " "))
		case "pseudonym":
			message = fmt.Sprintf("%s must be 2-30 letters, digits, spaces or _-.", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	return slices.Contains(model.Weekdays, fl.Field().String())
}

func validateSessionMode(fl validator.FieldLevel) bool {
	return slices.Contains(model.SessionModes, fl.Field().String())
}

func validateBookingDate(fl validator.FieldLevel) bool {
	_, err := model.ParseBookingDate(fl.Field().String())
	return err == nil
}

func validateReactionKind(fl validator.FieldLevel) bool {
	return slices.Contains(model.ReactionKinds, fl.Field().String())
}

func validatePseudonym(fl validator.FieldLevel) bool {
	return pseudonymRegex.MatchString(fl.Field().String())
}

// validateAfterStart compares against the sibling StartTime field. HH:MM
// strings order lexically.
func validateAfterStart(fl validator.FieldLevel) bool {
	start := fl.Parent().FieldByName("StartTime")
	if !start.IsValid() || start.Kind() != reflect.String {
		return false
	}
	end := fl.Field().String()
	return hhmmRegex.MatchString(start.String()) && end > start.String()
}
