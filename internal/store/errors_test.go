package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrReviewStateNotFound",
			err:      fmt.Errorf("failed to load state: %w", ErrReviewStateNotFound),
			expected: true,
		},
		{
			name:     "store error wrapping not found",
			err:      NewStoreError(EntityReviewState, "get", "missing", ErrReviewStateNotFound),
			expected: true,
		},
		{
			name:     "duplicate is not not-found",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	if !IsDuplicateError(fmt.Errorf("insert: %w", ErrDuplicate)) {
		t.Error("wrapped ErrDuplicate not recognized")
	}
	if IsDuplicateError(ErrNotFound) {
		t.Error("ErrNotFound recognized as duplicate")
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("review_state", "get", "database error", originalErr)

	expectedErrorString := "get operation on review_state failed: database error: database connection failed"
	if got := storeErr.Error(); got != expectedErrorString {
		t.Errorf("StoreError.Error() = %v, want %v", got, expectedErrorString)
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}

	bare := NewStoreError("review_state", "list", "cancelled", nil)
	if got := bare.Error(); got != "list operation on review_state failed: cancelled" {
		t.Errorf("StoreError.Error() = %v", got)
	}
}

func TestNextVersion(t *testing.T) {
	if got := NextVersion(nil); got != 1 {
		t.Errorf("NextVersion(nil) = %d, want 1", got)
	}
}
