package domain

import (
	"errors"
	"time"
)

// Default scheduling values for a state that has never been reviewed.
const (
	DefaultEaseFactor   = 2.5
	DefaultIntervalDays = 1
	MinEaseFactor       = 1.3
	MaxIntervalDays     = 365

	// RecentAttemptWindow bounds how many applied attempt ids a state
	// remembers for duplicate detection, independently of the history limit.
	RecentAttemptWindow = 64
)

// Validation errors for ReviewState.
var (
	ErrInvalidEaseFactor     = errors.New("ease factor must be at least 1.3")
	ErrInvalidInterval       = errors.New("interval must be between 0 and 365 days")
	ErrInvalidRepetition     = errors.New("repetition count cannot be negative")
	ErrNextReviewBeforeLast  = errors.New("next review cannot precede last review")
	ErrInvalidQualityHistory = errors.New("quality history entries must be between 0 and 5")
)

// QualityEntry records one graded attempt. The timestamp lets analytics derive
// streaks and daily counts; scheduling never reads it.
type QualityEntry struct {
	Quality    int       `json:"quality"`
	ReviewedAt time.Time `json:"reviewed_at"`
	AttemptID  string    `json:"attempt_id,omitempty"`
}

// ReviewState is the scheduling record for a single review item. It is owned
// by the scheduling engine: callers read it but never mutate it directly.
type ReviewState struct {
	EaseFactor      float64        `json:"ease_factor"`
	IntervalDays    int            `json:"interval_days"`
	RepetitionCount int            `json:"repetition_count"`
	NextReviewAt    time.Time      `json:"next_review_at"`
	LastReviewedAt  *time.Time     `json:"last_reviewed_at,omitempty"`
	QualityHistory  []QualityEntry `json:"quality_history,omitempty"`

	// Version is the compare-and-set token maintained by the store.
	Version int64 `json:"version"`
	// LastAttemptID identifies the most recently applied attempt so that a
	// retried submission is not applied twice.
	LastAttemptID string `json:"last_attempt_id,omitempty"`
	// RecentAttemptIDs holds the ids of the last RecentAttemptWindow applied
	// attempts, oldest first.
	RecentAttemptIDs []string `json:"recent_attempt_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReviewState returns the default state for an item first attempted at now.
// The item is considered due immediately.
func NewReviewState(now time.Time) *ReviewState {
	now = now.UTC()
	return &ReviewState{
		EaseFactor:      DefaultEaseFactor,
		IntervalDays:    DefaultIntervalDays,
		RepetitionCount: 0,
		NextReviewAt:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks the scheduling invariants.
func (s *ReviewState) Validate() error {
	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	if s.IntervalDays < 0 || s.IntervalDays > MaxIntervalDays {
		return ErrInvalidInterval
	}
	if s.RepetitionCount < 0 {
		return ErrInvalidRepetition
	}
	if s.LastReviewedAt != nil && s.NextReviewAt.Before(*s.LastReviewedAt) {
		return ErrNextReviewBeforeLast
	}
	for _, entry := range s.QualityHistory {
		if entry.Quality < 0 || entry.Quality > 5 {
			return ErrInvalidQualityHistory
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *ReviewState) Clone() *ReviewState {
	if s == nil {
		return nil
	}
	c := *s
	if s.LastReviewedAt != nil {
		last := *s.LastReviewedAt
		c.LastReviewedAt = &last
	}
	if s.QualityHistory != nil {
		c.QualityHistory = make([]QualityEntry, len(s.QualityHistory))
		copy(c.QualityHistory, s.QualityHistory)
	}
	if s.RecentAttemptIDs != nil {
		c.RecentAttemptIDs = make([]string, len(s.RecentAttemptIDs))
		copy(c.RecentAttemptIDs, s.RecentAttemptIDs)
	}
	return &c
}

// HasApplied reports whether the attempt with id was already applied to the
// state. Older attempts that fell out of both the history and the recent
// window are no longer recognised.
func (s *ReviewState) HasApplied(id string) bool {
	if s == nil || id == "" {
		return false
	}
	if s.LastAttemptID == id {
		return true
	}
	for _, recent := range s.RecentAttemptIDs {
		if recent == id {
			return true
		}
	}
	for _, entry := range s.QualityHistory {
		if entry.AttemptID == id {
			return true
		}
	}
	return false
}

// RecordAttempt marks id as applied. It tags the newest history entry when
// that entry has no attempt id yet and keeps the recent window bounded.
func (s *ReviewState) RecordAttempt(id string) {
	if id == "" {
		return
	}
	s.LastAttemptID = id
	if n := len(s.QualityHistory); n > 0 && s.QualityHistory[n-1].AttemptID == "" {
		s.QualityHistory[n-1].AttemptID = id
	}
	s.RecentAttemptIDs = append(s.RecentAttemptIDs, id)
	if len(s.RecentAttemptIDs) > RecentAttemptWindow {
		s.RecentAttemptIDs = append([]string(nil), s.RecentAttemptIDs[len(s.RecentAttemptIDs)-RecentAttemptWindow:]...)
	}
}

// Tier derives the difficulty tier from the numeric state.
func (s *ReviewState) Tier() Tier {
	return DeriveTier(s.RepetitionCount, s.EaseFactor)
}

// IsDue reports whether the item should be reviewed at now.
func (s *ReviewState) IsDue(now time.Time) bool {
	return !s.NextReviewAt.After(now)
}

// HasBeenReviewed reports whether at least one graded attempt was applied.
func (s *ReviewState) HasBeenReviewed() bool {
	return s.RepetitionCount > 0 || len(s.QualityHistory) > 0
}

// DaysOverdue is the number of whole days since the item became due, never negative.
func (s *ReviewState) DaysOverdue(now time.Time) int {
	overdue := now.Sub(s.NextReviewAt)
	if overdue <= 0 {
		return 0
	}
	return int(overdue / (24 * time.Hour))
}
