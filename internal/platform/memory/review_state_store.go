package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/store"
)

type recordKey struct {
	learnerID string
	itemKey   string
}

// ReviewStateStore is a mutex-guarded map implementation of
// store.ReviewStateStore. Stored states are copied on the way in and out so
// that callers never share memory with the store.
type ReviewStateStore struct {
	mu      sync.RWMutex
	records map[recordKey]*domain.ReviewState
	logger  *slog.Logger
	now     func() time.Time
}

var _ store.ReviewStateStore = (*ReviewStateStore)(nil)

// NewReviewStateStore creates an empty store.
// If logger is nil, the default logger is used.
func NewReviewStateStore(logger *slog.Logger) *ReviewStateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewStateStore{
		records: make(map[recordKey]*domain.ReviewState),
		logger:  logger.With(slog.String("component", "memory_review_state_store")),
		now:     time.Now,
	}
}

// Get implements store.ReviewStateStore.
func (s *ReviewStateStore) Get(
	ctx context.Context,
	learnerID, itemKey string,
) (*domain.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.records[recordKey{learnerID, itemKey}]
	if !ok {
		return nil, store.ErrReviewStateNotFound
	}
	return state.Clone(), nil
}

// CompareAndSet implements store.ReviewStateStore.
func (s *ReviewStateStore) CompareAndSet(
	ctx context.Context,
	learnerID, itemKey string,
	expected, next *domain.ReviewState,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if next == nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "next state is nil", store.ErrInvalidEntity)
	}
	if err := next.Validate(); err != nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "invalid state", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{learnerID, itemKey}
	current, exists := s.records[key]
	switch {
	case expected == nil && exists:
		return false, nil
	case expected != nil && (!exists || current.Version != expected.Version):
		return false, nil
	}

	version := store.NextVersion(expected)
	stored := next.Clone()
	stored.Version = version
	if exists {
		stored.CreatedAt = current.CreatedAt
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	s.records[key] = stored
	next.Version = version

	s.logger.Debug("review state written",
		slog.String("learner_id", learnerID),
		slog.String("item_key", itemKey),
		slog.Int64("version", version))
	return true, nil
}

// ListByLearner implements store.ReviewStateStore.
func (s *ReviewStateStore) ListByLearner(
	ctx context.Context,
	learnerID string,
) ([]store.StoredState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var result []store.StoredState
	for key, state := range s.records {
		if key.learnerID == learnerID {
			result = append(result, store.StoredState{ItemKey: key.itemKey, State: state.Clone()})
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ItemKey < result[j].ItemKey
	})
	return result, nil
}

// DeleteByLearner implements store.ReviewStateStore.
func (s *ReviewStateStore) DeleteByLearner(ctx context.Context, learnerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key := range s.records {
		if key.learnerID == learnerID {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}
