package service

import (
	"errors"

	"casino-simulator/backend/internal/repository"
)

// ValidationError reports a missing or malformed request field. Nothing is
// written when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrPromptRequired    = &ValidationError{Message: "Prompt is required"}
	ErrGameStateRequired = &ValidationError{Message: "game_state is required"}
	ErrInvalidSessionID  = &ValidationError{Message: "session id must be 1 to 255 characters"}
)

// ErrSessionNotFound is returned by Retrieve, Update, Delete and History
// for unknown ids.
var ErrSessionNotFound = repository.ErrSessionNotFound

// ServiceError wraps a failed completion call.
//
// GameStateCommitted is true when the same Submit call already persisted a
// new game_state before the provider failed. That write is kept.
type ServiceError struct {
	Err                error
	GameStateCommitted bool
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
