//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/verbdrill/internal/platform/postgres"
	"github.com/phrazzld/verbdrill/internal/store"
	"github.com/phrazzld/verbdrill/internal/store/storetest"
	"github.com/phrazzld/verbdrill/internal/testdb"
)

func TestPostgresReviewStateStore(t *testing.T) {
	db := testdb.Open(t)

	storetest.RunReviewStateStoreTests(t, func(t *testing.T) store.ReviewStateStore {
		return postgres.NewPostgresReviewStateStore(db, nil)
	})
}

func TestPostgresReviewStateStore_InTransaction(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	const learner = "tx-learner"

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		txStore := postgres.NewPostgresReviewStateStore(tx, nil)

		state := storetest.NewState(1, 1, 2.5)
		ok, err := txStore.CompareAndSet(ctx, learner, "hablar|preterite|yo", nil, state)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := txStore.Get(ctx, learner, "hablar|preterite|yo")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
	})

	_, err := postgres.NewPostgresReviewStateStore(db, nil).Get(ctx, learner, "hablar|preterite|yo")
	assert.ErrorIs(t, err, store.ErrReviewStateNotFound)
}
