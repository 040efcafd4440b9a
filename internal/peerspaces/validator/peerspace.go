package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"carelink/pkg/logger"
	"carelink/pkg/model"
	"carelink/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type PeerSpaceValidator struct {
	validate         *validator.Validate
	maxMessageLength int
	logger           *logger.Logger
}

func NewPeerSpaceValidator(maxMessageLength int, log *logger.Logger) *PeerSpaceValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize peer space validator", "error", err)
	}

	return &PeerSpaceValidator{
		validate:         v,
		maxMessageLength: maxMessageLength,
		logger:           log,
	}
}

func (v *PeerSpaceValidator) ValidateSession(req *model.SessionRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *PeerSpaceValidator) ValidatePseudonym(pseudonym string) error {
	return v.field("pseudonym", pseudonym, "required,pseudonym")
}

func (v *PeerSpaceValidator) ValidateRoomID(roomID string) error {
	return v.field("roomId", roomID, "required,mongodb")
}

// ValidateText expects already sanitized text and counts runes, not bytes.
func (v *PeerSpaceValidator) ValidateText(text string) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return validation.ValidationErrors{{Field: "text", Message: "text is required"}}
	}
	if n > v.maxMessageLength {
		return validation.ValidationErrors{{
			Field:   "text",
			Message: fmt.Sprintf("text must be at most %d characters", v.maxMessageLength),
		}}
	}
	return nil
}

func (v *PeerSpaceValidator) ValidateReaction(kind string) error {
	if !slices.Contains(model.ReactionKinds, kind) {
		return validation.ValidationErrors{{
			Field:   "kind",
			Message: fmt.Sprintf("kind must be one of: %s", strings.Join(model.ReactionKinds, " ")),
		}}
	}
	return nil
}

func (v *PeerSpaceValidator) field(name, value, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return validation.ValidationErrors{{Field: name, Message: fieldMessage(name, verrs[0].Tag())}}
}

func fieldMessage(name, tag string) string {
	switch tag {
	case "required":
		return name + " is required"
	case "mongodb":
		return name + " must be a valid ObjectID"
	case "pseudonym":
		return name + " must be 2-30 letters, digits, spaces or _-."
	default:
		return name + " is invalid"
	}
}
