// Package queue answers read-only questions about a learner's review
// schedule: which items are due and how the learner is doing overall.
package queue

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/redact"
	"github.com/phrazzld/verbdrill/internal/service"
	"github.com/phrazzld/verbdrill/internal/store"
)

const serviceName = "queue"

// DueItem is a review item whose next review time has passed.
type DueItem struct {
	Item        domain.ReviewItem   `json:"item"`
	State       *domain.ReviewState `json:"state"`
	Tier        domain.Tier         `json:"tier"`
	DaysOverdue int                 `json:"days_overdue"`
}

// Stats summarizes a learner's progress.
type Stats struct {
	TotalDue  int                 `json:"total_due"`
	DueByTier map[domain.Tier]int `json:"due_by_tier"`
	// AverageRetention is the percentage of all recorded quality ratings
	// that were passing. It is 0 when nothing has been recorded.
	AverageRetention float64 `json:"average_retention"`
	TotalReviewed    int     `json:"total_reviewed"`
	ReviewsToday     int     `json:"reviews_today"`
	StreakDays       int     `json:"streak_days"`
}

// Service is the review queue.
type Service interface {
	// GetDueItems returns the items due at now, most overdue first. Ties are
	// broken by item key. A limit <= 0 returns every due item.
	GetDueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]DueItem, error)

	// GetStats aggregates the learner's review states. Calendar days are
	// evaluated in the service's time zone.
	GetStats(ctx context.Context, learnerID string, now time.Time) (*Stats, error)
}

type queueService struct {
	states   store.ReviewStateStore
	location *time.Location
	logger   *slog.Logger
}

var _ Service = (*queueService)(nil)

// NewService creates the queue service. A nil location means UTC.
func NewService(states store.ReviewStateStore, location *time.Location, logger *slog.Logger) Service {
	if states == nil {
		panic("states cannot be nil")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &queueService{
		states:   states,
		location: location,
		logger:   logger.With(slog.String("component", "queue_service")),
	}
}

// GetDueItems implements Service.GetDueItems.
func (s *queueService) GetDueItems(
	ctx context.Context,
	learnerID string,
	now time.Time,
	limit int,
) ([]DueItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stored, err := s.list(ctx, "get_due_items", learnerID)
	if err != nil {
		return nil, err
	}

	due := CollectDue(learnerID, stored, now, log)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	log.Debug("due items computed",
		slog.String("learner_id", learnerID),
		slog.Int("stored", len(stored)),
		slog.Int("due", len(due)))
	return due, nil
}

// GetStats implements Service.GetStats.
func (s *queueService) GetStats(ctx context.Context, learnerID string, now time.Time) (*Stats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stored, err := s.list(ctx, "get_stats", learnerID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{DueByTier: make(map[domain.Tier]int, len(domain.AllTiers))}
	for _, tier := range domain.AllTiers {
		stats.DueByTier[tier] = 0
	}

	today := civilDate(now, s.location)
	activeDays := make(map[date]struct{})
	var passing, ratings int

	for _, st := range stored {
		state := st.State
		if state.IsDue(now) {
			stats.TotalDue++
			stats.DueByTier[state.Tier()]++
		}
		if state.HasBeenReviewed() {
			stats.TotalReviewed++
		}
		for _, entry := range state.QualityHistory {
			ratings++
			if entry.Quality >= domain.PassingQuality {
				passing++
			}
			day := civilDate(entry.ReviewedAt, s.location)
			activeDays[day] = struct{}{}
			if day == today {
				stats.ReviewsToday++
			}
		}
		// Bounded histories may have dropped older entries; the last review
		// always counts as activity.
		if state.LastReviewedAt != nil {
			activeDays[civilDate(*state.LastReviewedAt, s.location)] = struct{}{}
		}
	}

	if ratings > 0 {
		stats.AverageRetention = math.Round(float64(passing)/float64(ratings)*10000) / 100
	}
	stats.StreakDays = streak(activeDays, today)

	log.Debug("stats computed",
		slog.String("learner_id", learnerID),
		slog.Int("total_due", stats.TotalDue),
		slog.Int("total_reviewed", stats.TotalReviewed))
	return stats, nil
}

func (s *queueService) list(ctx context.Context, op, learnerID string) ([]store.StoredState, error) {
	if learnerID == "" {
		return nil, domain.NewValidationError("learner_id", "is required", domain.ErrEmptyLearnerID)
	}
	stored, err := s.states.ListByLearner(ctx, learnerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list review states",
			redact.Attr(err),
			slog.String("learner_id", learnerID))
		return nil, service.NewServiceError(serviceName, op, "failed to list review states", err)
	}
	return stored, nil
}

// CollectDue picks the due states out of stored and orders them by
// NextReviewAt, then item key. States with unparseable keys are skipped.
func CollectDue(learnerID string, stored []store.StoredState, now time.Time, log *slog.Logger) []DueItem {
	due := make([]DueItem, 0, len(stored))
	for _, st := range stored {
		if st.State == nil || !st.State.IsDue(now) {
			continue
		}
		item, err := domain.ParseItemKey(learnerID, st.ItemKey)
		if err != nil {
			if log != nil {
				log.Warn("skipping review state with invalid key",
					slog.String("learner_id", learnerID),
					slog.String("item_key", st.ItemKey))
			}
			continue
		}
		due = append(due, DueItem{
			Item:        item,
			State:       st.State,
			Tier:        st.State.Tier(),
			DaysOverdue: st.State.DaysOverdue(now),
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].State.NextReviewAt, due[j].State.NextReviewAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return due[i].Item.Key() < due[j].Item.Key()
	})
	return due
}

type date struct {
	year  int
	month time.Month
	day   int
}

func civilDate(t time.Time, loc *time.Location) date {
	y, m, d := t.In(loc).Date()
	return date{y, m, d}
}

func (d date) previous() date {
	return civilDate(time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1), time.UTC)
}

// streak counts consecutive active days ending today, or yesterday when
// nothing has been reviewed yet today.
func streak(active map[date]struct{}, today date) int {
	day := today
	if _, ok := active[day]; !ok {
		day = day.previous()
		if _, ok := active[day]; !ok {
			return 0
		}
	}

	n := 0
	for {
		if _, ok := active[day]; !ok {
			return n
		}
		n++
		day = day.previous()
	}
}
