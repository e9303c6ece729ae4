package memory_test

import (
	"testing"

	"github.com/phrazzld/verbdrill/internal/platform/memory"
	"github.com/phrazzld/verbdrill/internal/store"
	"github.com/phrazzld/verbdrill/internal/store/storetest"
)

func TestReviewStateStore(t *testing.T) {
	t.Parallel()

	storetest.RunReviewStateStoreTests(t, func(t *testing.T) store.ReviewStateStore {
		return memory.NewReviewStateStore(nil)
	})
}
