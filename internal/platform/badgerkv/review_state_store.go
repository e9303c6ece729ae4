package badgerkv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/store"
)

const keyPrefix = "rs/"

// ReviewStateStore implements store.ReviewStateStore on BadgerDB.
//
// CompareAndSet runs in a read-write transaction that reads the current
// record before writing. Badger's optimistic concurrency aborts the commit
// with ErrConflict if another transaction wrote the key in between; that is
// reported as a lost compare-and-set.
type ReviewStateStore struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.ReviewStateStore = (*ReviewStateStore)(nil)

// NewReviewStateStore wraps an open database. If logger is nil, the default
// logger is used.
func NewReviewStateStore(db *badger.DB, logger *slog.Logger) *ReviewStateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "badger_review_state_store")),
		now:    time.Now,
	}
}

func learnerPrefix(learnerID string) []byte {
	return []byte(keyPrefix + url.PathEscape(learnerID) + "/")
}

func recordKey(learnerID, itemKey string) []byte {
	return append(learnerPrefix(learnerID), itemKey...)
}

// Get implements store.ReviewStateStore.
func (s *ReviewStateStore) Get(
	ctx context.Context,
	learnerID, itemKey string,
) (*domain.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *domain.ReviewState
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		state, err = readState(txn, recordKey(learnerID, itemKey))
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrReviewStateNotFound) {
			return nil, err
		}
		return nil, store.NewStoreError(store.EntityReviewState, "get", "failed to read review state", err)
	}
	return state, nil
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

	key := recordKey(learnerID, itemKey)
	version := store.NextVersion(expected)
	errVersionMismatch := errors.New("version mismatch")

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readState(txn, key)
		switch {
		case errors.Is(err, store.ErrReviewStateNotFound):
			if expected != nil {
				return errVersionMismatch
			}
		case err != nil:
			return err
		case expected == nil || current.Version != expected.Version:
			return errVersionMismatch
		}

		stored := next.Clone()
		stored.Version = version
		if current != nil {
			stored.CreatedAt = current.CreatedAt
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = s.now().UTC()
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})

	switch {
	case err == nil:
		next.Version = version
		return true, nil
	case errors.Is(err, errVersionMismatch), errors.Is(err, badger.ErrConflict):
		s.logger.Debug("compare-and-set lost",
			slog.String("learner_id", learnerID),
			slog.String("item_key", itemKey))
		return false, nil
	default:
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "failed to write review state", err)
	}
}

// ListByLearner implements store.ReviewStateStore.
func (s *ReviewStateStore) ListByLearner(
	ctx context.Context,
	learnerID string,
) ([]store.StoredState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := learnerPrefix(learnerID)
	var result []store.StoredState

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			state, err := decodeItem(item)
			if err != nil {
				return err
			}
			result = append(result, store.StoredState{
				ItemKey: strings.TrimPrefix(string(item.Key()), string(prefix)),
				State:   state,
			})
		}
		return nil
	})
	if err != nil {
		return nil, store.NewStoreError(store.EntityReviewState, "list", "failed to list review states", err)
	}
	return result, nil
}

// DeleteByLearner implements store.ReviewStateStore.
func (s *ReviewStateStore) DeleteByLearner(ctx context.Context, learnerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := learnerPrefix(learnerID)
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, store.NewStoreError(store.EntityReviewState, "delete", "failed to scan review states", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, store.NewStoreError(store.EntityReviewState, "delete", "failed to delete review state", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, store.NewStoreError(store.EntityReviewState, "delete", "failed to flush deletes", err)
	}

	s.logger.Info("review states deleted",
		slog.String("learner_id", learnerID),
		slog.Int("count", len(keys)))
	return len(keys), nil
}

func readState(txn *badger.Txn, key []byte) (*domain.ReviewState, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrReviewStateNotFound
		}
		return nil, err
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (*domain.ReviewState, error) {
	var state domain.ReviewState
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &state)
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}
