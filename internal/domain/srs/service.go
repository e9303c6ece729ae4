package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// Common errors
var (
	ErrNilState    = errors.New("review state cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the scheduling engine operations.
//
// Contract: Update never rejects a graded attempt. Quality ratings outside
// 0..5 are clamped, negative or NaN response times count as instant, and a nil
// state is treated as a fresh default state. Callers must not pre-correct
// inputs themselves.
//
// The engine assumes a single writer per record. It is safe to share between
// goroutines, but two overlapping updates of the same record must be
// serialized by the caller (the store's compare-and-set).
type Service interface {
	// Update computes the state that results from one graded attempt.
	// The input state is left untouched.
	Update(
		state *domain.ReviewState,
		quality int,
		responseTimeSeconds float64,
		now time.Time,
	) *domain.ReviewState

	// NewState returns the default state for an item first attempted at now.
	NewState(now time.Time) *domain.ReviewState

	// Postpone pushes the next review forward by a number of days.
	Postpone(
		state *domain.ReviewState,
		days int,
		now time.Time,
	) (*domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Update implements Service.Update
func (s *defaultService) Update(
	state *domain.ReviewState,
	quality int,
	responseTimeSeconds float64,
	now time.Time,
) *domain.ReviewState {
	if state == nil {
		state = s.NewState(now)
	}
	return calculateNextState(state, quality, responseTimeSeconds, now, s.params)
}

// NewState implements Service.NewState
func (s *defaultService) NewState(now time.Time) *domain.ReviewState {
	state := domain.NewReviewState(now)
	state.EaseFactor = s.params.DefaultEaseFactor
	return state
}

// Postpone implements Service.Postpone
func (s *defaultService) Postpone(
	state *domain.ReviewState,
	days int,
	now time.Time,
) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := state.Clone()
	next.NextReviewAt = state.NextReviewAt.AddDate(0, 0, days)
	next.UpdatedAt = now.UTC()

	return next, nil
}
