// Package storetest holds the behavioural test suite every
// store.ReviewStateStore implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/store"
)

// Factory returns a ready store. It may register cleanup on t.
type Factory func(t *testing.T) store.ReviewStateStore

// baseTime has whole-second precision so that every backend round-trips it.
var baseTime = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// NewState returns a valid reviewed state for use in store tests.
func NewState(reps int, interval int, ease float64) *domain.ReviewState {
	last := baseTime
	return &domain.ReviewState{
		EaseFactor:      ease,
		IntervalDays:    interval,
		RepetitionCount: reps,
		NextReviewAt:    baseTime.AddDate(0, 0, interval),
		LastReviewedAt:  &last,
		QualityHistory: []domain.QualityEntry{
			{Quality: 4, ReviewedAt: baseTime, AttemptID: "attempt-1"},
		},
		LastAttemptID:    "attempt-1",
		RecentAttemptIDs: []string{"attempt-1"},
		CreatedAt:        baseTime,
		UpdatedAt:        baseTime,
	}
}

// RunReviewStateStoreTests runs the contract suite against stores built by newStore.
func RunReviewStateStoreTests(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), uuid.NewString(), "hablar|preterite|yo")
		assert.ErrorIs(t, err, store.ErrReviewStateNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("create only if absent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()
		key := "hablar|preterite|yo"

		first := NewState(1, 1, 2.5)
		ok, err := s.CompareAndSet(ctx, learner, key, nil, first)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), first.Version)

		ok, err = s.CompareAndSet(ctx, learner, key, nil, NewState(1, 1, 2.6))
		require.NoError(t, err)
		assert.False(t, ok, "second create must lose")

		got, err := s.Get(ctx, learner, key)
		require.NoError(t, err)
		assertStateEqual(t, first, got)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("versioned update", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()
		key := "comer|present|yo"

		created := NewState(1, 1, 2.5)
		ok, err := s.CompareAndSet(ctx, learner, key, nil, created)
		require.NoError(t, err)
		require.True(t, ok)

		current, err := s.Get(ctx, learner, key)
		require.NoError(t, err)

		next := NewState(2, 6, 2.6)
		ok, err = s.CompareAndSet(ctx, learner, key, current, next)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(2), next.Version)

		stale := NewState(2, 6, 2.2)
		ok, err = s.CompareAndSet(ctx, learner, key, current, stale)
		require.NoError(t, err)
		assert.False(t, ok, "stale version must lose")

		got, err := s.Get(ctx, learner, key)
		require.NoError(t, err)
		assertStateEqual(t, next, got)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("update of missing record fails", func(t *testing.T) {
		s := newStore(t)
		expected := NewState(1, 1, 2.5)
		expected.Version = 1

		ok, err := s.CompareAndSet(context.Background(), uuid.NewString(), "ir|present|yo", expected, NewState(2, 6, 2.5))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects invalid state", func(t *testing.T) {
		s := newStore(t)
		invalid := NewState(1, 1, 1.0)

		ok, err := s.CompareAndSet(context.Background(), uuid.NewString(), "ir|present|yo", nil, invalid)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("returned state is a copy", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()
		key := "vivir|future|yo"

		ok, err := s.CompareAndSet(ctx, learner, key, nil, NewState(1, 1, 2.5))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Get(ctx, learner, key)
		require.NoError(t, err)
		got.EaseFactor = 9
		got.QualityHistory[0].Quality = 0

		again, err := s.Get(ctx, learner, key)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, again.EaseFactor, 1e-9)
		assert.Equal(t, 4, again.QualityHistory[0].Quality)
	})

	t.Run("concurrent writers on one version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()
		key := "tener|present|yo"

		ok, err := s.CompareAndSet(ctx, learner, key, nil, NewState(1, 1, 2.5))
		require.NoError(t, err)
		require.True(t, ok)

		current, err := s.Get(ctx, learner, key)
		require.NoError(t, err)

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.CompareAndSet(ctx, learner, key, current.Clone(), NewState(2, 6, 2.5))
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins, "exactly one writer may win")
		got, err := s.Get(ctx, learner, key)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("list and delete by learner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()
		other := uuid.NewString()

		for _, key := range []string{"vivir|future|yo", "comer|present|yo", "hablar|preterite|yo"} {
			ok, err := s.CompareAndSet(ctx, learner, key, nil, NewState(1, 1, 2.5))
			require.NoError(t, err)
			require.True(t, ok)
		}
		ok, err := s.CompareAndSet(ctx, other, "ir|present|yo", nil, NewState(1, 1, 2.5))
		require.NoError(t, err)
		require.True(t, ok)

		states, err := s.ListByLearner(ctx, learner)
		require.NoError(t, err)
		require.Len(t, states, 3)
		assert.Equal(t, "comer|present|yo", states[0].ItemKey)
		assert.Equal(t, "hablar|preterite|yo", states[1].ItemKey)
		assert.Equal(t, "vivir|future|yo", states[2].ItemKey)

		deleted, err := s.DeleteByLearner(ctx, learner)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)

		states, err = s.ListByLearner(ctx, learner)
		require.NoError(t, err)
		assert.Empty(t, states)

		remaining, err := s.ListByLearner(ctx, other)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("list orders keys by bytes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		learner := uuid.NewString()

		for _, key := range []string{"ser|present|usted", "ser|present|tú", "ser|present|tz"} {
			ok, err := s.CompareAndSet(ctx, learner, key, nil, NewState(1, 1, 2.5))
			require.NoError(t, err)
			require.True(t, ok)
		}

		states, err := s.ListByLearner(ctx, learner)
		require.NoError(t, err)
		require.Len(t, states, 3)
		assert.Equal(t, "ser|present|tz", states[0].ItemKey)
		assert.Equal(t, "ser|present|tú", states[1].ItemKey)
		assert.Equal(t, "ser|present|usted", states[2].ItemKey)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Get(ctx, uuid.NewString(), "ir|present|yo")
		assert.Error(t, err)
	})
}

func assertStateEqual(t *testing.T, want, got *domain.ReviewState) {
	t.Helper()

	assert.InDelta(t, want.EaseFactor, got.EaseFactor, 1e-9)
	assert.Equal(t, want.IntervalDays, got.IntervalDays)
	assert.Equal(t, want.RepetitionCount, got.RepetitionCount)
	assert.True(t, want.NextReviewAt.Equal(got.NextReviewAt), "next review %s != %s", want.NextReviewAt, got.NextReviewAt)
	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, want.LastReviewedAt.Equal(*got.LastReviewedAt))
	require.Len(t, got.QualityHistory, len(want.QualityHistory))
	for i := range want.QualityHistory {
		assert.Equal(t, want.QualityHistory[i].Quality, got.QualityHistory[i].Quality)
		assert.True(t, want.QualityHistory[i].ReviewedAt.Equal(got.QualityHistory[i].ReviewedAt))
		assert.Equal(t, want.QualityHistory[i].AttemptID, got.QualityHistory[i].AttemptID)
	}
	assert.Equal(t, want.LastAttemptID, got.LastAttemptID)
	assert.Equal(t, want.RecentAttemptIDs, got.RecentAttemptIDs)
}
