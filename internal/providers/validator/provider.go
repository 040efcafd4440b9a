package validator

import (
	"carelink/pkg/logger"
	"carelink/pkg/model"
	"carelink/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ProviderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProviderValidator(log *logger.Logger) *ProviderValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize provider validator", "error", err)
	}

	return &ProviderValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ProviderValidator) ValidateFilter(filter *model.ProviderFilter) error {
	return validation.Struct(v.validate, filter)
}

func (v *ProviderValidator) ValidateReview(review *model.ReviewRequest) error {
	return validation.Struct(v.validate, review)
}

// ValidateProvider checks a provider document before it is stored. Slots must
// be unique per day.
func (v *ProviderValidator) ValidateProvider(provider *model.Provider) error {
	if err := validation.Struct(v.validate, provider); err != nil {
		return err
	}

	for _, day := range provider.Availability {
		seen := make(map[[2]string]struct{}, len(day.Slots))
		for _, slot := range day.Slots {
			k := [2]string{slot.StartTime, slot.EndTime}
			if _, dup := seen[k]; dup {
				return validation.ValidationErrors{{
					Field:   "availability",
					Message: "duplicate slot " + slot.StartTime + "-" + slot.EndTime + " on " + day.Day,
				}}
			}
			if slot.EndTime <= slot.StartTime {
				return validation.ValidationErrors{{
					Field:   "availability",
					Message: "slot " + slot.StartTime + "-" + slot.EndTime + " must end after it starts",
				}}
			}
			seen[k] = struct{}{}
		}
	}
	return nil
}
