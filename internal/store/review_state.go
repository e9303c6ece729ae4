package store

import (
	"context"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// EntityReviewState names review states in StoreError values.
const EntityReviewState = "review_state"

// StoredState pairs a scheduling state with its item key.
type StoredState struct {
	ItemKey string
	State   *domain.ReviewState
}

// ReviewStateStore persists one ReviewState per (learner, item key).
//
// Writes go exclusively through CompareAndSet so that concurrent attempts on
// the same item serialize: a writer that read a stale version loses and must
// re-read. Implementations must be safe for concurrent use.
type ReviewStateStore interface {
	// Get returns the stored state, or ErrReviewStateNotFound.
	Get(ctx context.Context, learnerID, itemKey string) (*domain.ReviewState, error)

	// CompareAndSet writes next only if the stored record still matches
	// expected. A nil expected means "create only if absent"; otherwise the
	// stored Version must equal expected.Version. It returns false, with a nil
	// error, when the comparison fails. On success next.Version is set to the
	// new version (expected.Version+1, or 1 on create).
	CompareAndSet(
		ctx context.Context,
		learnerID, itemKey string,
		expected, next *domain.ReviewState,
	) (bool, error)

	// ListByLearner returns every state for the learner ordered by item key.
	ListByLearner(ctx context.Context, learnerID string) ([]StoredState, error)

	// DeleteByLearner removes every state for the learner and returns how many
	// were removed.
	DeleteByLearner(ctx context.Context, learnerID string) (int, error)
}

// NextVersion returns the version a successful CompareAndSet assigns.
func NextVersion(expected *domain.ReviewState) int64 {
	if expected == nil {
		return 1
	}
	return expected.Version + 1
}
