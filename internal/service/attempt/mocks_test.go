package attempt_test

import (
	"context"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockReviewStateStore is a testify mock of store.ReviewStateStore.
type MockReviewStateStore struct {
	mock.Mock
}

var _ store.ReviewStateStore = (*MockReviewStateStore)(nil)

func (m *MockReviewStateStore) Get(
	ctx context.Context,
	learnerID, itemKey string,
) (*domain.ReviewState, error) {
	args := m.Called(ctx, learnerID, itemKey)
	state, _ := args.Get(0).(*domain.ReviewState)
	return state, args.Error(1)
}

func (m *MockReviewStateStore) CompareAndSet(
	ctx context.Context,
	learnerID, itemKey string,
	expected, next *domain.ReviewState,
) (bool, error) {
	args := m.Called(ctx, learnerID, itemKey, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewStateStore) ListByLearner(
	ctx context.Context,
	learnerID string,
) ([]store.StoredState, error) {
	args := m.Called(ctx, learnerID)
	states, _ := args.Get(0).([]store.StoredState)
	return states, args.Error(1)
}

func (m *MockReviewStateStore) DeleteByLearner(ctx context.Context, learnerID string) (int, error) {
	args := m.Called(ctx, learnerID)
	return args.Int(0), args.Error(1)
}
