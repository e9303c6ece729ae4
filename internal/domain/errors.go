package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when caller input fails validation.
	// It is usually wrapped in a ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyLearnerID is returned when an operation has no learner identity.
	ErrEmptyLearnerID = errors.New("learner ID cannot be empty")

	// ErrInvalidItemKey is returned when a review item key cannot be parsed.
	ErrInvalidItemKey = errors.New("invalid review item key")

	// ErrInvalidTier is returned when a difficulty tier name is not recognized.
	ErrInvalidTier = errors.New("invalid difficulty tier")
)

// ValidationError describes malformed or missing caller input. The engine
// rejects such input rather than guessing at the caller's intent.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// Is reports every ValidationError as an ErrValidation, whatever it wraps.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// IsValidationError reports whether err is (or wraps) a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
