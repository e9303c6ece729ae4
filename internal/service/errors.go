package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/verbdrill/internal/catalog"
)

// Sentinel errors shared by the service packages. The API layer maps them to
// status codes with errors.Is, so wrap them with %w rather than replacing them.
var (
	// ErrUnknownExercise indicates the submitted verb/tense/person is not in
	// the catalog. API layer maps this to 404.
	ErrUnknownExercise = catalog.ErrUnknownExercise

	// ErrEmptyCandidateSet indicates that no catalog entry satisfies the
	// session constraints. API layer maps this to 422.
	ErrEmptyCandidateSet = errors.New("no exercises match the given constraints")

	// ErrConcurrentUpdateConflict indicates that compare-and-set kept losing
	// to concurrent writers until the retry budget ran out. API layer maps
	// this to 409; the caller may resubmit.
	ErrConcurrentUpdateConflict = errors.New("review state was modified concurrently")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
// Expected conditions are returned as the sentinels above instead.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
