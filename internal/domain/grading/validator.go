package grading

import (
	"math"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/phrazzld/verbdrill/internal/domain"
)

// Params configures scoring and quality thresholds.
type Params struct {
	// Score bonus thresholds in seconds, applied to full-credit answers only.
	FastBonusSeconds   float64
	FastBonus          int
	MediumBonusSeconds float64
	MediumBonus        int

	// Quality thresholds in seconds for accepted answers.
	PerfectSeconds float64
	GoodSeconds    float64

	// CloseMissRatio is the largest edit distance, relative to the longer of
	// the two normalized strings, that still counts as a near miss.
	CloseMissRatio float64
}

// DefaultParams returns the standard scoring thresholds.
func DefaultParams() Params {
	return Params{
		FastBonusSeconds:   10,
		FastBonus:          10,
		MediumBonusSeconds: 20,
		MediumBonus:        5,
		PerfectSeconds:     5,
		GoodSeconds:        15,
		CloseMissRatio:     0.34,
	}
}

// Quality ratings produced by the validator.
const (
	QualityPerfect   = 5
	QualityGood      = 4
	QualityHesitant  = 3
	QualityCloseMiss = 2
	QualityWrong     = 0
)

const fullScore = 100

// Validator grades answers. It holds no mutable state and is safe for
// concurrent use.
type Validator struct {
	params Params
}

// NewValidator creates a Validator with the given params.
func NewValidator(params Params) *Validator {
	return &Validator{params: params}
}

// NewDefaultValidator creates a Validator with DefaultParams.
func NewDefaultValidator() *Validator {
	return NewValidator(DefaultParams())
}

// Validate grades a submission against the canonical form and alternatives.
// An empty submission is incorrect with quality 0; it is not an error.
func (v *Validator) Validate(
	submitted string,
	canonical string,
	alternatives []string,
	responseTimeSeconds float64,
) domain.AttemptResult {
	seconds := sanitizeSeconds(responseTimeSeconds)
	answer := Normalize(submitted)

	var result domain.AttemptResult
	if answer == "" {
		result.Quality = QualityWrong
		return result
	}

	target := Normalize(canonical)
	switch {
	case answer == target:
		result.IsCorrect = true
	case matchesAny(answer, alternatives):
		result.MatchedAlternative = true
	}

	result.Score = v.score(result.Accepted(), seconds)
	result.Quality = v.quality(result.Accepted(), seconds, answer, target, alternatives)
	return result
}

// score computes the 0–100 score including the speed bonus.
func (v *Validator) score(accepted bool, seconds float64) int {
	if !accepted {
		return 0
	}

	score := fullScore
	switch {
	case seconds < v.params.FastBonusSeconds:
		score += v.params.FastBonus
	case seconds < v.params.MediumBonusSeconds:
		score += v.params.MediumBonus
	}

	return clampScore(score)
}

// quality maps correctness and latency to the scheduler's 0–5 rating.
func (v *Validator) quality(
	accepted bool,
	seconds float64,
	answer, target string,
	alternatives []string,
) int {
	if accepted {
		switch {
		case seconds < v.params.PerfectSeconds:
			return QualityPerfect
		case seconds < v.params.GoodSeconds:
			return QualityGood
		default:
			return QualityHesitant
		}
	}

	if v.IsCloseMiss(answer, target, alternatives) {
		return QualityCloseMiss
	}
	return QualityWrong
}

// IsCloseMiss reports whether a wrong answer shares the stem of the canonical
// form or an alternative. Inputs must already be normalized.
//
// The heuristic is a relative edit distance: with d the Levenshtein distance
// in runes and n the rune length of the longer string, d/n <= CloseMissRatio.
// At the default 0.34 a single wrong accent or ending letter on a typical
// conjugation ("hable" for "hablé") is a near miss, while a different verb or
// tense is not.
func (v *Validator) IsCloseMiss(answer, target string, alternatives []string) bool {
	candidates := make([]string, 0, len(alternatives)+1)
	candidates = append(candidates, target)
	for _, alt := range alternatives {
		candidates = append(candidates, Normalize(alt))
	}

	for _, candidate := range candidates {
		if candidate == "" || candidate == answer {
			continue
		}
		longest := max(utf8.RuneCountInString(answer), utf8.RuneCountInString(candidate))
		distance := levenshtein.Distance(answer, candidate, nil)
		if float64(distance)/float64(longest) <= v.params.CloseMissRatio {
			return true
		}
	}
	return false
}

func matchesAny(answer string, alternatives []string) bool {
	for _, alt := range alternatives {
		if normalized := Normalize(alt); normalized != "" && normalized == answer {
			return true
		}
	}
	return false
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > fullScore {
		return fullScore
	}
	return score
}

// sanitizeSeconds treats negative and NaN latencies as instant.
func sanitizeSeconds(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return seconds
}
