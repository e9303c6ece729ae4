package badgerkv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/verbdrill/internal/platform/badgerkv"
	"github.com/phrazzld/verbdrill/internal/store"
	"github.com/phrazzld/verbdrill/internal/store/storetest"
)

func newStore(t *testing.T) store.ReviewStateStore {
	t.Helper()

	db, err := badgerkv.Open(badgerkv.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return badgerkv.NewReviewStateStore(db, nil)
}

func TestReviewStateStore(t *testing.T) {
	t.Parallel()
	storetest.RunReviewStateStoreTests(t, newStore)
}

func TestLearnerIDsWithSlashesDoNotOverlap(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	ok, err := s.CompareAndSet(ctx, "a/b", "ir|present|yo", nil, storetest.NewState(1, 1, 2.5))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.CompareAndSet(ctx, "a", "b/ir|present|yo", nil, storetest.NewState(1, 1, 2.5))
	require.NoError(t, err)
	require.True(t, ok)

	states, err := s.ListByLearner(ctx, "a")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "b/ir|present|yo", states[0].ItemKey)
}

func TestOpenPersistent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := badgerkv.Open(badgerkv.DefaultConfig(dir))
	require.NoError(t, err)

	s := badgerkv.NewReviewStateStore(db, nil)
	ok, err := s.CompareAndSet(context.Background(), "learner", "ir|present|yo", nil, storetest.NewState(1, 1, 2.5))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, db.Close())

	db, err = badgerkv.Open(badgerkv.DefaultConfig(dir))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := badgerkv.NewReviewStateStore(db, nil).Get(context.Background(), "learner", "ir|present|yo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := badgerkv.Open(badgerkv.Config{})
	assert.Error(t, err)
}
