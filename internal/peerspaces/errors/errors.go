package errors

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")

	ErrMessageNotFound = errors.New("message not found")

	ErrVisitNotFound = errors.New("visit not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrPseudonymTaken = errors.New("pseudonym already taken")
)
