package api

import (
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/service/attempt"
	"github.com/phrazzld/verbdrill/internal/service/queue"
)

// SessionRequest defines the payload for starting a practice session.
type SessionRequest struct {
	Verbs   []string `json:"verbs"`
	Tenses  []string `json:"tenses"`
	Persons []string `json:"persons"`
	Theme   string   `json:"theme"      validate:"max=200"`
	Filter  string   `json:"filter"     validate:"max=1000"`
	// Difficulty restricts the session to one tier: new, learning, reviewing or mastered.
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=new learning reviewing mastered"`
	// Count defaults to the configured session size when zero.
	Count int `json:"count" validate:"gte=0,lte=100"`
}

// ExerciseResponse is one exercise in a session.
type ExerciseResponse struct {
	Verb        string `json:"verb"`
	Tense       string `json:"tense"`
	Person      string `json:"person,omitempty"`
	Prompt      string `json:"prompt"`
	Tier        string `json:"difficulty_tier"`
	DaysOverdue int    `json:"days_overdue"`
	Source      string `json:"source"`
}

// SessionResponse lists the exercises selected for a session.
type SessionResponse struct {
	Exercises []ExerciseResponse `json:"exercises"`
}

// AttemptRequest defines the payload for submitting an answer.
type AttemptRequest struct {
	Verb                string  `json:"verb"                  validate:"required"`
	Tense               string  `json:"tense"                 validate:"required"`
	Person              string  `json:"person"`
	Answer              string  `json:"answer"                validate:"max=500"`
	ResponseTimeSeconds float64 `json:"response_time_seconds" validate:"gte=0"`
	// AttemptID makes a retried submission idempotent. Optional.
	AttemptID string `json:"attempt_id" validate:"max=128"`
}

// AttemptResponse is the graded outcome of a submission.
type AttemptResponse struct {
	AttemptID          string    `json:"attempt_id"`
	IsCorrect          bool      `json:"is_correct"`
	MatchedAlternative bool      `json:"matched_alternative"`
	Score              int       `json:"score"`
	Quality            int       `json:"quality"`
	Feedback           string    `json:"feedback"`
	NextReviewInDays   int       `json:"next_review_in_days"`
	DifficultyTier     string    `json:"difficulty_tier"`
	NextReviewAt       time.Time `json:"next_review_at"`
	Duplicate          bool      `json:"duplicate,omitempty"`
}

// PostponeRequest defines the payload for postponing a review.
type PostponeRequest struct {
	Verb   string `json:"verb"   validate:"required"`
	Tense  string `json:"tense"  validate:"required"`
	Person string `json:"person"`
	Days   int    `json:"days"   validate:"gte=1,lte=365"`
}

// ReviewStateResponse exposes the scheduling fields of a review state.
type ReviewStateResponse struct {
	Verb            string     `json:"verb"`
	Tense           string     `json:"tense"`
	Person          string     `json:"person,omitempty"`
	EaseFactor      float64    `json:"ease_factor"`
	IntervalDays    int        `json:"interval_days"`
	RepetitionCount int        `json:"repetition_count"`
	NextReviewAt    time.Time  `json:"next_review_at"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	DifficultyTier  string     `json:"difficulty_tier"`
}

// DueItemResponse is one due review.
type DueItemResponse struct {
	ReviewStateResponse
	DaysOverdue int `json:"days_overdue"`
}

// DueItemsResponse lists due reviews, most overdue first.
type DueItemsResponse struct {
	Items []DueItemResponse `json:"items"`
	Count int               `json:"count"`
}

// StatsResponse summarizes a learner's progress.
type StatsResponse struct {
	TotalDue         int            `json:"total_due"`
	DueByTier        map[string]int `json:"due_by_tier"`
	AverageRetention float64        `json:"average_retention"`
	TotalReviewed    int            `json:"total_reviewed"`
	ReviewsToday     int            `json:"reviews_today"`
	StreakDays       int            `json:"streak_days"`
}

// ResetResponse reports how many review states were deleted.
type ResetResponse struct {
	Deleted int `json:"deleted"`
}

func constraintsFromRequest(req SessionRequest) (domain.Constraints, error) {
	constraints := domain.Constraints{
		Verbs:   req.Verbs,
		Tenses:  req.Tenses,
		Persons: req.Persons,
		Theme:   req.Theme,
		Filter:  req.Filter,
	}
	if req.Difficulty != "" {
		tier, err := domain.ParseTier(req.Difficulty)
		if err != nil {
			return domain.Constraints{}, domain.NewValidationError("difficulty", "is not a known tier", err)
		}
		constraints.Difficulty = &tier
	}
	return constraints, nil
}

func exerciseToResponse(spec domain.ExerciseSpec) ExerciseResponse {
	return ExerciseResponse{
		Verb:        spec.Item.Verb,
		Tense:       spec.Item.Tense,
		Person:      spec.Item.Person,
		Prompt:      spec.Prompt,
		Tier:        string(spec.Tier),
		DaysOverdue: spec.DaysOverdue,
		Source:      string(spec.Source),
	}
}

func outcomeToResponse(outcome *attempt.Outcome) AttemptResponse {
	return AttemptResponse{
		AttemptID:          outcome.AttemptID,
		IsCorrect:          outcome.Result.IsCorrect,
		MatchedAlternative: outcome.Result.MatchedAlternative,
		Score:              outcome.Result.Score,
		Quality:            outcome.Result.Quality,
		Feedback:           outcome.Feedback,
		NextReviewInDays:   outcome.NextReviewInDays,
		DifficultyTier:     string(outcome.Tier),
		NextReviewAt:       outcome.State.NextReviewAt,
		Duplicate:          outcome.Duplicate,
	}
}

func stateToResponse(item domain.ReviewItem, state *domain.ReviewState) ReviewStateResponse {
	return ReviewStateResponse{
		Verb:            item.Verb,
		Tense:           item.Tense,
		Person:          item.Person,
		EaseFactor:      state.EaseFactor,
		IntervalDays:    state.IntervalDays,
		RepetitionCount: state.RepetitionCount,
		NextReviewAt:    state.NextReviewAt,
		LastReviewedAt:  state.LastReviewedAt,
		DifficultyTier:  string(state.Tier()),
	}
}

func dueItemsToResponse(items []queue.DueItem) DueItemsResponse {
	resp := DueItemsResponse{Items: make([]DueItemResponse, 0, len(items)), Count: len(items)}
	for _, item := range items {
		resp.Items = append(resp.Items, DueItemResponse{
			ReviewStateResponse: stateToResponse(item.Item, item.State),
			DaysOverdue:         item.DaysOverdue,
		})
	}
	return resp
}

func statsToResponse(stats *queue.Stats) StatsResponse {
	byTier := make(map[string]int, len(stats.DueByTier))
	for tier, n := range stats.DueByTier {
		byTier[string(tier)] = n
	}
	return StatsResponse{
		TotalDue:         stats.TotalDue,
		DueByTier:        byTier,
		AverageRetention: stats.AverageRetention,
		TotalReviewed:    stats.TotalReviewed,
		ReviewsToday:     stats.ReviewsToday,
		StreakDays:       stats.StreakDays,
	}
}
