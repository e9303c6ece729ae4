package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
)

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  int
		expected float64
	}{
		{name: "quality 5 raises ease", current: 2.5, quality: 5, expected: 2.6},
		{name: "quality 4 keeps ease", current: 2.5, quality: 4, expected: 2.5},
		{name: "quality 3 lowers ease slightly", current: 2.5, quality: 3, expected: 2.36},
		{name: "quality 2 lowers ease", current: 2.5, quality: 2, expected: 2.18},
		{name: "quality 0 lowers ease sharply", current: 2.5, quality: 0, expected: 1.7},
		{name: "floor is enforced", current: 1.4, quality: 0, expected: 1.3},
		{name: "no ceiling", current: 3.0, quality: 5, expected: 3.1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected ease factor %.2f, got %.4f", tc.expected, got)
			}
		})
	}
}

func TestCalculateBaseInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  int
		reps     int
		ef       float64
		quality  int
		expected int
	}{
		{name: "first success", current: 1, reps: 0, ef: 2.5, quality: 4, expected: 1},
		{name: "second success", current: 1, reps: 1, ef: 2.6, quality: 5, expected: 6},
		{name: "third success multiplies by ease", current: 6, reps: 2, ef: 2.36, quality: 3, expected: 14},
		{name: "rounds to nearest day", current: 10, reps: 3, ef: 2.56, quality: 4, expected: 26},
		{name: "failure restarts", current: 40, reps: 5, ef: 2.5, quality: 2, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateBaseInterval(tc.current, tc.reps, tc.ef, tc.quality, params)
			if got != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestApplyTimeFactor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		interval int
		seconds  float64
		expected int
	}{
		{name: "very fast", interval: 10, seconds: 1.5, expected: 12},
		{name: "fast", interval: 10, seconds: 4.9, expected: 11},
		{name: "normal", interval: 10, seconds: 7, expected: 10},
		{name: "slow", interval: 10, seconds: 15, expected: 9},
		{name: "very slow", interval: 10, seconds: 45, expected: 8},
		{name: "boundary at two seconds", interval: 10, seconds: 2, expected: 11},
		{name: "boundary at twenty seconds", interval: 10, seconds: 20, expected: 8},
		{name: "minimum one day", interval: 1, seconds: 60, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyTimeFactor(tc.interval, tc.seconds, params)
			if got != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestCalculateNextStateDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	state := domain.NewReviewState(now)
	original := *state

	next := calculateNextState(state, 5, 3, now, params)

	if next == state {
		t.Fatal("Expected a new state instance")
	}
	if state.EaseFactor != original.EaseFactor ||
		state.IntervalDays != original.IntervalDays ||
		state.RepetitionCount != original.RepetitionCount ||
		len(state.QualityHistory) != 0 {
		t.Error("Input state was modified")
	}
}

func TestAppendHistoryBound(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	var history []domain.QualityEntry
	for q := 0; q <= 5; q++ {
		history = appendHistory(history, domain.QualityEntry{Quality: q, ReviewedAt: now}, 3)
	}

	if len(history) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(history))
	}
	if history[0].Quality != 3 || history[2].Quality != 5 {
		t.Errorf("Expected the newest entries to be kept, got %+v", history)
	}
}
