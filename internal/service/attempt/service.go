// Package attempt grades learner submissions and applies them to the
// learner's review state.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/verbdrill/internal/catalog"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/domain/grading"
	"github.com/phrazzld/verbdrill/internal/domain/srs"
	"github.com/phrazzld/verbdrill/internal/events"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/platform/metrics"
	"github.com/phrazzld/verbdrill/internal/redact"
	"github.com/phrazzld/verbdrill/internal/service"
	"github.com/phrazzld/verbdrill/internal/store"
)

// DefaultMaxRetries bounds how many times a lost compare-and-set is retried.
const DefaultMaxRetries = 3

const serviceName = "attempt"

// Submission is one answer to one exercise.
type Submission struct {
	LearnerID           string
	Verb                string
	Tense               string
	Person              string
	Answer              string
	ResponseTimeSeconds float64

	// AttemptID identifies the logical attempt. A retry carrying the ID of
	// the attempt last applied to the item is answered without re-applying
	// it. Empty means a fresh ID is generated.
	AttemptID string
}

// Outcome is the result of a submission.
type Outcome struct {
	Item             domain.ReviewItem
	AttemptID        string
	Result           domain.AttemptResult
	Feedback         string
	NextReviewInDays int
	Tier             domain.Tier
	State            *domain.ReviewState

	// Duplicate is set when the attempt had already been applied.
	Duplicate bool
}

// Service applies graded attempts to review states.
type Service interface {
	// Submit grades the submission and records it.
	//
	// Returns:
	//   - a *domain.ValidationError for missing fields or an invalid response time
	//   - service.ErrUnknownExercise when the exercise is not in the catalog
	//   - service.ErrConcurrentUpdateConflict when every compare-and-set retry lost
	//
	// An item without a stored state starts from the default state; an empty
	// answer is graded as incorrect, not rejected.
	Submit(ctx context.Context, sub Submission) (*Outcome, error)

	// Postpone pushes the next review of an item back by days.
	// Returns store.ErrReviewStateNotFound if the item was never attempted.
	Postpone(ctx context.Context, item domain.ReviewItem, days int) (*domain.ReviewState, error)

	// Reset deletes every review state of the learner and returns the count.
	Reset(ctx context.Context, learnerID string) (int, error)
}

// Option customizes the service.
type Option func(*attemptService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *attemptService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxRetries overrides DefaultMaxRetries. Negative values are ignored.
func WithMaxRetries(n int) Option {
	return func(s *attemptService) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithMetrics records compare-and-set retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *attemptService) {
		s.metrics = m
	}
}

var _ Service = (*attemptService)(nil)

type attemptService struct {
	states     store.ReviewStateStore
	catalog    catalog.Catalog
	validator  *grading.Validator
	engine     srs.Service
	emitter    events.EventEmitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
	maxRetries int
}

// NewService creates the attempt service. It panics if a required
// collaborator is nil; emitter and logger are optional.
func NewService(
	states store.ReviewStateStore,
	cat catalog.Catalog,
	validator *grading.Validator,
	engine srs.Service,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if states == nil {
		panic("states cannot be nil")
	}
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if validator == nil {
		panic("validator cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &attemptService{
		states:     states,
		catalog:    cat,
		validator:  validator,
		engine:     engine,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "attempt_service")),
		now:        time.Now,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errAlreadyApplied stops a mutation whose attempt is already stored.
var errAlreadyApplied = errors.New("attempt already applied")

// Submit implements Service.Submit.
func (s *attemptService) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewReviewItem(sub.LearnerID, sub.Verb, sub.Tense, sub.Person)
	if err != nil {
		return nil, err
	}
	if err := validateResponseTime(sub.ResponseTimeSeconds); err != nil {
		return nil, err
	}

	entry, err := s.catalog.Lookup(item.Verb, item.Tense, item.Person)
	if err != nil {
		log.Debug("exercise not in catalog", slog.String("item", item.Key()))
		return nil, err
	}

	attemptID := sub.AttemptID
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	result := s.validator.Validate(sub.Answer, entry.Canonical, entry.Alternatives, sub.ResponseTimeSeconds)
	now := s.now()

	state, err := s.mutate(ctx, item, func(current *domain.ReviewState) (*domain.ReviewState, error) {
		if current.HasApplied(attemptID) {
			return nil, errAlreadyApplied
		}
		base := current
		if base == nil {
			base = s.engine.NewState(now)
		}
		next := s.engine.Update(base, result.Quality, sub.ResponseTimeSeconds, now)
		next.RecordAttempt(attemptID)
		return next, nil
	})

	duplicate := errors.Is(err, errAlreadyApplied)
	if err != nil && !duplicate {
		if !errors.Is(err, service.ErrConcurrentUpdateConflict) {
			log.Error("failed to record attempt",
				redact.Attr(err),
				slog.String("learner_id", item.LearnerID),
				slog.String("item", item.Key()))
		}
		return nil, err
	}

	outcome := &Outcome{
		Item:             item,
		AttemptID:        attemptID,
		Result:           result,
		Feedback:         grading.Feedback(result, entry),
		NextReviewInDays: state.IntervalDays,
		Tier:             state.Tier(),
		State:            state,
		Duplicate:        duplicate,
	}

	if duplicate {
		log.Info("duplicate attempt ignored",
			slog.String("learner_id", item.LearnerID),
			slog.String("item", item.Key()),
			slog.String("attempt_id", attemptID))
	} else {
		log.Debug("attempt recorded",
			slog.String("learner_id", item.LearnerID),
			slog.String("item", item.Key()),
			slog.Int("quality", result.Quality),
			slog.Int("interval_days", state.IntervalDays))
	}

	s.emit(ctx, events.TypeAttemptGraded, events.AttemptGraded{
		LearnerID:           item.LearnerID,
		ItemKey:             item.Key(),
		AttemptID:           attemptID,
		IsCorrect:           result.IsCorrect,
		MatchedAlternative:  result.MatchedAlternative,
		Score:               result.Score,
		Quality:             result.Quality,
		ResponseTimeSeconds: sub.ResponseTimeSeconds,
		Tier:                string(outcome.Tier),
		IntervalDays:        state.IntervalDays,
		NextReviewAt:        state.NextReviewAt,
		Duplicate:           duplicate,
	})

	return outcome, nil
}

// Postpone implements Service.Postpone.
func (s *attemptService) Postpone(
	ctx context.Context,
	item domain.ReviewItem,
	days int,
) (*domain.ReviewState, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, domain.NewValidationError("days", "must be at least 1", srs.ErrInvalidDays)
	}

	now := s.now()
	state, err := s.mutate(ctx, item, func(current *domain.ReviewState) (*domain.ReviewState, error) {
		if current == nil {
			return nil, store.ErrReviewStateNotFound
		}
		return s.engine.Postpone(current, days, now)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("review postponed",
		slog.String("learner_id", item.LearnerID),
		slog.String("item", item.Key()),
		slog.Int("days", days),
		slog.Time("next_review_at", state.NextReviewAt))
	return state, nil
}

// Reset implements Service.Reset.
func (s *attemptService) Reset(ctx context.Context, learnerID string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if learnerID == "" {
		return 0, domain.NewValidationError("learner_id", "is required", domain.ErrEmptyLearnerID)
	}

	deleted, err := s.states.DeleteByLearner(ctx, learnerID)
	if err != nil {
		log.Error("failed to reset progress", redact.Attr(err), slog.String("learner_id", learnerID))
		return 0, service.NewServiceError(serviceName, "reset", "failed to delete review states", err)
	}

	log.Info("progress reset", slog.String("learner_id", learnerID), slog.Int("deleted", deleted))
	s.emit(ctx, events.TypeProgressReset, events.ProgressReset{LearnerID: learnerID, Deleted: deleted})
	return deleted, nil
}

// mutate runs a read-modify-write cycle on one review state. fn receives the
// stored state, or nil if there is none, and returns the state to write.
// Lost compare-and-set races are retried up to maxRetries times. If fn
// returns errAlreadyApplied, mutate returns the stored state with that error.
func (s *attemptService) mutate(
	ctx context.Context,
	item domain.ReviewItem,
	fn func(current *domain.ReviewState) (*domain.ReviewState, error),
) (*domain.ReviewState, error) {
	key := item.Key()

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := s.states.Get(ctx, item.LearnerID, key)
		if err != nil {
			if !store.IsNotFoundError(err) {
				return nil, service.NewServiceError(serviceName, "read_state", "failed to read review state", err)
			}
			current = nil
		}

		next, err := fn(current)
		if errors.Is(err, errAlreadyApplied) {
			return current, err
		}
		if err != nil {
			return nil, err
		}

		ok, err := s.states.CompareAndSet(ctx, item.LearnerID, key, current, next)
		if err != nil {
			return nil, service.NewServiceError(serviceName, "write_state", "failed to write review state", err)
		}
		if ok {
			return next, nil
		}

		s.metrics.ObserveCASRetry()
		logger.FromContextOrDefault(ctx, s.logger).Debug("compare-and-set lost, retrying",
			slog.String("learner_id", item.LearnerID),
			slog.String("item", key),
			slog.Int("attempt", attempt+1))
	}

	s.metrics.ObserveCASExhausted()
	return nil, fmt.Errorf("%w: %s after %d retries", service.ErrConcurrentUpdateConflict, key, s.maxRetries)
}

// emit publishes an event. Handler failures are logged and never fail the
// operation: the state change has already been stored.
func (s *attemptService) emit(ctx context.Context, eventType string, payload interface{}) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event", redact.Attr(err), slog.String("event_type", eventType))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed", redact.Attr(err), slog.String("event_type", eventType))
	}
}

func validateResponseTime(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return domain.NewValidationError(
			"response_time_seconds",
			"must be a finite, non-negative number",
			nil,
		)
	}
	return nil
}
