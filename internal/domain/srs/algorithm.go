package srs

import (
	"math"
	"time"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease adjustment for a quality rating
// and enforces the ease floor. There is no ceiling.
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// A quality of 5 raises the ease by 0.1, 4 leaves it unchanged, 3 lowers it by
// 0.14 and 0 lowers it by 0.8.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	miss := float64(domain.MaxQuality - quality)
	newEF := currentEF + (0.1 - miss*(0.08+miss*0.02))

	// Every adjustment is a multiple of 0.02; rounding keeps float drift out
	// of the tier thresholds.
	newEF = math.Round(newEF*100) / 100

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateBaseInterval determines the interval before the response-time
// adjustment.
//
// Successful recalls (quality >= 3) follow the SM-2 progression: the first
// repetition schedules FirstInterval days, the second SecondInterval days, and
// later ones multiply the current interval by the updated ease factor. A failed
// recall restarts at one day.
func calculateBaseInterval(
	currentInterval int,
	repetitionCount int,
	newEaseFactor float64,
	quality int,
	params *Params,
) int {
	if quality < domain.PassingQuality {
		return 1
	}

	switch repetitionCount {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	default:
		return int(math.Round(float64(currentInterval) * newEaseFactor))
	}
}

// applyTimeFactor scales the interval by how quickly the learner answered and
// rounds to the nearest day, never below one day.
func applyTimeFactor(interval int, responseTimeSeconds float64, params *Params) int {
	adjusted := int(math.Round(float64(interval) * params.timeFactor(responseTimeSeconds)))
	if adjusted < 1 {
		return 1
	}
	return adjusted
}

// sanitizeResponseTime treats negative and non-finite response times as instant.
func sanitizeResponseTime(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if math.IsInf(seconds, 1) {
		return math.MaxFloat64
	}
	return seconds
}

// calculateNextState creates a new ReviewState from the current one and a
// graded attempt. The input state is never modified.
//
// Steps:
//  1. clamp quality to [0, 5]
//  2. update the ease factor (floor 1.3)
//  3. grow or reset the interval and repetition count
//  4. adjust the interval for response time
//  5. keep mature intervals strictly growing on success
//  6. cap the interval
//  7. schedule the next review and append to the quality history
func calculateNextState(
	state *domain.ReviewState,
	quality int,
	responseTimeSeconds float64,
	now time.Time,
	params *Params,
) *domain.ReviewState {
	quality = domain.ClampQuality(quality)
	responseTimeSeconds = sanitizeResponseTime(responseTimeSeconds)
	now = now.UTC()

	next := state.Clone()

	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, quality, params)

	interval := calculateBaseInterval(
		state.IntervalDays,
		state.RepetitionCount,
		next.EaseFactor,
		quality,
		params,
	)

	if quality >= domain.PassingQuality {
		next.RepetitionCount = state.RepetitionCount + 1
	} else {
		next.RepetitionCount = 0
	}

	interval = applyTimeFactor(interval, responseTimeSeconds, params)

	// A slow but correct answer on a mature item must still move it forward.
	if quality >= domain.PassingQuality &&
		state.RepetitionCount >= 2 &&
		interval <= state.IntervalDays {
		interval = state.IntervalDays + 1
	}

	// Failures always restart at one day regardless of speed.
	if quality < domain.PassingQuality {
		interval = 1
	}

	if interval > params.MaxIntervalDays {
		interval = params.MaxIntervalDays
	}
	next.IntervalDays = interval

	next.LastReviewedAt = &now
	next.NextReviewAt = now.AddDate(0, 0, interval)
	next.QualityHistory = appendHistory(
		next.QualityHistory,
		domain.QualityEntry{Quality: quality, ReviewedAt: now},
		params.MaxHistory,
	)
	next.UpdatedAt = now
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}

	return next
}

// appendHistory appends entry and drops the oldest entries beyond limit.
func appendHistory(history []domain.QualityEntry, entry domain.QualityEntry, limit int) []domain.QualityEntry {
	history = append(history, entry)
	if limit > 0 && len(history) > limit {
		history = append([]domain.QualityEntry(nil), history[len(history)-limit:]...)
	}
	return history
}
