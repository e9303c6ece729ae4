package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/store"
)

const reviewStateColumns = `item_key, ease_factor, interval_days, repetition_count, next_review_at,
	last_reviewed_at, quality_history, last_attempt_id, recent_attempt_ids, version, created_at, updated_at`

// PostgresReviewStateStore implements store.ReviewStateStore using
// PostgreSQL. Compare-and-set is a single statement per call: a
// version-checked UPDATE, or an INSERT that does nothing on conflict.
type PostgresReviewStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

// NewPostgresReviewStateStore creates a store over db.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStateStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_state_store")),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (string, *domain.ReviewState, error) {
	var (
		key        string
		state      domain.ReviewState
		lastReview sql.NullTime
		history    []byte
		recent     []byte
	)
	err := row.Scan(
		&key,
		&state.EaseFactor,
		&state.IntervalDays,
		&state.RepetitionCount,
		&state.NextReviewAt,
		&lastReview,
		&history,
		&state.LastAttemptID,
		&recent,
		&state.Version,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return "", nil, err
	}

	if lastReview.Valid {
		t := lastReview.Time.UTC()
		state.LastReviewedAt = &t
	}
	state.NextReviewAt = state.NextReviewAt.UTC()
	state.CreatedAt = state.CreatedAt.UTC()
	state.UpdatedAt = state.UpdatedAt.UTC()

	if len(history) > 0 {
		if err := json.Unmarshal(history, &state.QualityHistory); err != nil {
			return "", nil, fmt.Errorf("%w: quality history: %v", store.ErrInvalidEntity, err)
		}
	}
	if len(recent) > 0 {
		if err := json.Unmarshal(recent, &state.RecentAttemptIDs); err != nil {
			return "", nil, fmt.Errorf("%w: recent attempt ids: %v", store.ErrInvalidEntity, err)
		}
		if len(state.RecentAttemptIDs) == 0 {
			state.RecentAttemptIDs = nil
		}
	}
	return key, &state, nil
}

// Get implements store.ReviewStateStore.
func (s *PostgresReviewStateStore) Get(
	ctx context.Context,
	learnerID, itemKey string,
) (*domain.ReviewState, error) {
	query := `SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE learner_id = $1 AND item_key = $2`

	_, state, err := scanState(s.db.QueryRowContext(ctx, query, learnerID, itemKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		s.logger.Error("failed to get review state",
			slog.String("learner_id", learnerID),
			slog.String("item_key", itemKey),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(store.EntityReviewState, "get", "failed to read review state", MapError(err))
	}
	return state, nil
}

// CompareAndSet implements store.ReviewStateStore.
func (s *PostgresReviewStateStore) CompareAndSet(
	ctx context.Context,
	learnerID, itemKey string,
	expected, next *domain.ReviewState,
) (bool, error) {
	if next == nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "next state is nil", store.ErrInvalidEntity)
	}
	if err := next.Validate(); err != nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "invalid state", err)
	}

	history, err := json.Marshal(nonNilHistory(next.QualityHistory))
	if err != nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "failed to encode history", err)
	}
	recent, err := json.Marshal(nonNilAttemptIDs(next.RecentAttemptIDs))
	if err != nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "failed to encode attempt ids", err)
	}

	var lastReview sql.NullTime
	if next.LastReviewedAt != nil {
		lastReview = sql.NullTime{Time: next.LastReviewedAt.UTC(), Valid: true}
	}

	version := store.NextVersion(expected)
	updatedAt := next.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var result sql.Result
	if expected == nil {
		createdAt := next.CreatedAt
		if createdAt.IsZero() {
			createdAt = updatedAt
		}
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO review_states (
				learner_id, item_key, ease_factor, interval_days, repetition_count,
				next_review_at, last_reviewed_at, quality_history, last_attempt_id,
				recent_attempt_ids, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (learner_id, item_key) DO NOTHING`,
			learnerID, itemKey, next.EaseFactor, next.IntervalDays, next.RepetitionCount,
			next.NextReviewAt.UTC(), lastReview, string(history), next.LastAttemptID,
			string(recent), version, createdAt.UTC(), updatedAt.UTC(),
		)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE review_states SET
				ease_factor = $3,
				interval_days = $4,
				repetition_count = $5,
				next_review_at = $6,
				last_reviewed_at = $7,
				quality_history = $8,
				last_attempt_id = $9,
				recent_attempt_ids = $10,
				version = $11,
				updated_at = $12
			WHERE learner_id = $1 AND item_key = $2 AND version = $13`,
			learnerID, itemKey, next.EaseFactor, next.IntervalDays, next.RepetitionCount,
			next.NextReviewAt.UTC(), lastReview, string(history), next.LastAttemptID,
			string(recent), version, updatedAt.UTC(), expected.Version,
		)
	}
	if err != nil {
		s.logger.Error("failed to write review state",
			slog.String("learner_id", learnerID),
			slog.String("item_key", itemKey),
			slog.String("error", err.Error()))
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "failed to write review state", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return false, store.NewStoreError(store.EntityReviewState, "compare_and_set", "failed to confirm write", err)
	}
	if n == 0 {
		s.logger.Debug("compare-and-set lost",
			slog.String("learner_id", learnerID),
			slog.String("item_key", itemKey))
		return false, nil
	}

	next.Version = version
	return true, nil
}

// ListByLearner implements store.ReviewStateStore.
func (s *PostgresReviewStateStore) ListByLearner(
	ctx context.Context,
	learnerID string,
) ([]store.StoredState, error) {
	query := `SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE learner_id = $1
		ORDER BY item_key COLLATE "C"`

	rows, err := s.db.QueryContext(ctx, query, learnerID)
	if err != nil {
		return nil, store.NewStoreError(store.EntityReviewState, "list", "failed to query review states", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var result []store.StoredState
	for rows.Next() {
		key, state, err := scanState(rows)
		if err != nil {
			return nil, store.NewStoreError(store.EntityReviewState, "list", "failed to scan review state", MapError(err))
		}
		result = append(result, store.StoredState{ItemKey: key, State: state})
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityReviewState, "list", "failed to iterate review states", MapError(err))
	}
	return result, nil
}

// DeleteByLearner implements store.ReviewStateStore.
func (s *PostgresReviewStateStore) DeleteByLearner(ctx context.Context, learnerID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM review_states WHERE learner_id = $1`, learnerID)
	if err != nil {
		return 0, store.NewStoreError(store.EntityReviewState, "delete", "failed to delete review states", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return 0, store.NewStoreError(store.EntityReviewState, "delete", "failed to confirm delete", err)
	}

	s.logger.Info("review states deleted",
		slog.String("learner_id", learnerID),
		slog.Int64("count", n))
	return int(n), nil
}

func nonNilHistory(history []domain.QualityEntry) []domain.QualityEntry {
	if history == nil {
		return []domain.QualityEntry{}
	}
	return history
}

func nonNilAttemptIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
