// Package selector assembles practice sessions: due reviews first, then a
// random sample of catalog entries the learner has not yet seen or that are
// not yet due.
package selector

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/phrazzld/verbdrill/internal/catalog"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/platform/metrics"
	"github.com/phrazzld/verbdrill/internal/redact"
	"github.com/phrazzld/verbdrill/internal/service"
	"github.com/phrazzld/verbdrill/internal/service/queue"
	"github.com/phrazzld/verbdrill/internal/store"
)

const serviceName = "selector"

// Service selects exercises for a practice session.
type Service interface {
	// Select returns up to count exercises matching constraints. Due items
	// come first, most overdue first; the remainder is sampled uniformly
	// from matching entries that are new or not yet due. It returns fewer
	// than count only when fewer candidates exist.
	//
	// Returns service.ErrEmptyCandidateSet when no catalog entry matches and
	// a *domain.ValidationError for a bad count or filter expression.
	// Select never writes to the store.
	Select(ctx context.Context, learnerID string, constraints domain.Constraints, count int) ([]domain.ExerciseSpec, error)
}

// Option customizes the service.
type Option func(*selectorService)

// WithSeed makes sampling deterministic. Tests and reproducible sessions use
// it; by default the sampler is randomly seeded.
func WithSeed(seed uint64) Option {
	return func(s *selectorService) {
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithClock overrides the time source used to decide what is due.
func WithClock(now func() time.Time) Option {
	return func(s *selectorService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics counts selected exercises by source.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *selectorService) {
		s.metrics = m
	}
}

type selectorService struct {
	catalog catalog.Catalog
	states  store.ReviewStateStore
	filters *catalog.FilterEnv
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Service = (*selectorService)(nil)

// NewService creates the selector. filters may be nil, in which case
// constraints carrying a filter expression are rejected.
func NewService(
	cat catalog.Catalog,
	states store.ReviewStateStore,
	filters *catalog.FilterEnv,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if states == nil {
		panic("states cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &selectorService{
		catalog: cat,
		states:  states,
		filters: filters,
		logger:  logger.With(slog.String("component", "selector_service")),
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select implements Service.Select.
func (s *selectorService) Select(
	ctx context.Context,
	learnerID string,
	constraints domain.Constraints,
	count int,
) ([]domain.ExerciseSpec, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if learnerID == "" {
		return nil, domain.NewValidationError("learner_id", "is required", domain.ErrEmptyLearnerID)
	}
	if count < 1 {
		return nil, domain.NewValidationError("count", "must be at least 1", nil)
	}
	if constraints.Difficulty != nil && !constraints.Difficulty.IsValid() {
		return nil, domain.NewValidationError("difficulty", "is not a known tier", domain.ErrInvalidTier)
	}

	matcher, err := catalog.NewMatcher(constraints, s.filters)
	if err != nil {
		return nil, err
	}
	entries, err := matcher.Filter(s.catalog.Entries())
	if err != nil {
		return nil, err
	}

	stored, err := s.states.ListByLearner(ctx, learnerID)
	if err != nil {
		log.Error("failed to list review states", redact.Attr(err), slog.String("learner_id", learnerID))
		return nil, service.NewServiceError(serviceName, "select", "failed to list review states", err)
	}
	byKey := make(map[string]*domain.ReviewState, len(stored))
	for _, st := range stored {
		byKey[st.ItemKey] = st.State
	}

	if constraints.Difficulty != nil {
		entries = filterByTier(entries, byKey, *constraints.Difficulty)
	}
	if len(entries) == 0 {
		log.Debug("no exercises match constraints", slog.String("learner_id", learnerID))
		return nil, service.ErrEmptyCandidateSet
	}

	now := s.now()
	candidates := make(map[string]domain.CatalogEntry, len(entries))
	for _, entry := range entries {
		candidates[entry.Key()] = entry
	}

	session := make([]domain.ExerciseSpec, 0, min(count, len(entries)))
	for _, due := range queue.CollectDue(learnerID, stored, now, log) {
		if len(session) == count {
			break
		}
		entry, ok := candidates[due.Item.Key()]
		if !ok {
			continue
		}
		session = append(session, domain.ExerciseSpec{
			Item:        due.Item,
			Prompt:      entry.PromptText(),
			Tier:        due.Tier,
			DaysOverdue: due.DaysOverdue,
			Source:      domain.SourceDue,
		})
	}

	if remaining := count - len(session); remaining > 0 {
		var pool []domain.CatalogEntry
		for _, entry := range entries {
			if state, ok := byKey[entry.Key()]; ok && state.IsDue(now) {
				continue
			}
			pool = append(pool, entry)
		}
		for _, entry := range s.sample(pool, remaining) {
			spec := domain.ExerciseSpec{
				Item:   entry.Item(learnerID),
				Prompt: entry.PromptText(),
				Tier:   domain.TierNew,
				Source: domain.SourceNew,
			}
			if state, ok := byKey[entry.Key()]; ok {
				spec.Tier = state.Tier()
				spec.Source = domain.SourcePractice
			}
			session = append(session, spec)
		}
	}

	for _, spec := range session {
		s.metrics.ObserveSelection(string(spec.Source))
	}

	log.Debug("session selected",
		slog.String("learner_id", learnerID),
		slog.Int("requested", count),
		slog.Int("candidates", len(entries)),
		slog.Int("selected", len(session)))
	return session, nil
}

// sample picks n entries uniformly without replacement. The pool order is
// fixed (catalog order), so a seeded rng yields a reproducible sample.
func (s *selectorService) sample(pool []domain.CatalogEntry, n int) []domain.CatalogEntry {
	if n > len(pool) {
		n = len(pool)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Partial Fisher-Yates over a copy.
	picked := append([]domain.CatalogEntry(nil), pool...)
	for i := 0; i < n; i++ {
		j := i + s.rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:n]
}

func filterByTier(
	entries []domain.CatalogEntry,
	states map[string]*domain.ReviewState,
	tier domain.Tier,
) []domain.CatalogEntry {
	var kept []domain.CatalogEntry
	for _, entry := range entries {
		current := domain.TierNew
		if state, ok := states[entry.Key()]; ok {
			current = state.Tier()
		}
		if current == tier {
			kept = append(kept, entry)
		}
	}
	return kept
}
