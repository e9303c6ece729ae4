package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/catalog"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/service"
	"github.com/phrazzld/verbdrill/internal/service/auth"
	"github.com/phrazzld/verbdrill/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingLearner):
		return http.StatusUnauthorized

	// Bad request errors
	case domain.IsValidationError(err),
		errors.Is(err, catalog.ErrInvalidFilter):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrUnknownExercise),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrConcurrentUpdateConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrEmptyCandidateSet):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingLearner):
		return "Invalid token"

	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization required"

	case errors.Is(err, catalog.ErrInvalidFilter):
		return "Invalid filter expression"

	case errors.As(err, &validationErr):
		return validationMessage(validationErr)

	case errors.Is(err, service.ErrUnknownExercise):
		return "Exercise not found"

	case errors.Is(err, store.ErrReviewStateNotFound):
		return "Review state not found"

	case errors.Is(err, service.ErrConcurrentUpdateConflict):
		return "Review state was modified concurrently, please retry"

	case errors.Is(err, service.ErrEmptyCandidateSet):
		return "No exercises match the given constraints"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationMessage(validationErr)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'AttemptRequest.verb' Error:Field validation for 'verb' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fieldParts[3]))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationMessage(err *domain.ValidationError) string {
	if err.Field == "" {
		return err.Message
	}
	return fmt.Sprintf("Invalid %s: %s", err.Field, err.Message)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	case "dive":
		return "invalid element"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err, logging the full
// error. defaultMsg replaces the generic message for unexpected failures.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	var opts []shared.ResponseOption
	if errors.Is(err, service.ErrConcurrentUpdateConflict) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
