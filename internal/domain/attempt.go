package domain

// Quality rating bounds.
const (
	MinQuality = 0
	MaxQuality = 5

	// PassingQuality is the lowest rating treated as a successful recall.
	PassingQuality = 3
)

// AttemptResult is the transient outcome of grading one submission. The
// scheduling engine consumes only its Quality.
type AttemptResult struct {
	IsCorrect          bool `json:"is_correct"`
	MatchedAlternative bool `json:"matched_alternative"`
	Score              int  `json:"score"`
	Quality            int  `json:"quality"`
}

// Accepted reports whether the answer matched the canonical form or an alternative.
func (r AttemptResult) Accepted() bool {
	return r.IsCorrect || r.MatchedAlternative
}

// ClampQuality bounds a quality rating to [0, 5].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}
