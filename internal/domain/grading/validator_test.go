package grading_test

import (
	"math"
	"testing"

	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/domain/grading"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trims whitespace", input: "  hablé \t", expected: "hablé"},
		{name: "folds case", input: "HABLÉ", expected: "hablé"},
		{name: "collapses inner whitespace", input: "me   levanté", expected: "me levanté"},
		{name: "composes combining accents", input: "habl\u0065\u0301", expected: "habl\u00e9"},
		{name: "keeps accents", input: "hablé", expected: "hablé"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, grading.Normalize(tc.input))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	validator := grading.NewDefaultValidator()

	testCases := []struct {
		name         string
		submitted    string
		canonical    string
		alternatives []string
		seconds      float64
		expected     domain.AttemptResult
	}{
		{
			name:      "correct and fast",
			submitted: "hablé",
			canonical: "hablé",
			seconds:   3,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 5},
		},
		{
			name:      "correct with case and spacing differences",
			submitted: "  HABLÉ ",
			canonical: "hablé",
			seconds:   8,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 4},
		},
		{
			name:      "exactly five seconds is good, not perfect",
			submitted: "hablé",
			canonical: "hablé",
			seconds:   5,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 4},
		},
		{
			name:      "exactly fifteen seconds is hesitant",
			submitted: "hablé",
			canonical: "hablé",
			seconds:   15,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 3},
		},
		{
			name:      "correct but slow",
			submitted: "hablé",
			canonical: "hablé",
			seconds:   25,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 3},
		},
		{
			name:         "alternative counts as fully correct",
			submitted:    "hubiera hablado",
			canonical:    "hubiese hablado",
			alternatives: []string{"hubiera hablado"},
			seconds:      12,
			expected:     domain.AttemptResult{MatchedAlternative: true, Score: 100, Quality: 4},
		},
		{
			name:      "missing accent is a close miss",
			submitted: "hable",
			canonical: "hablé",
			seconds:   4,
			expected:  domain.AttemptResult{Score: 0, Quality: 2},
		},
		{
			name:         "accent-free spelling accepted when listed",
			submitted:    "hable",
			canonical:    "hablé",
			alternatives: []string{"hable"},
			seconds:      4,
			expected:     domain.AttemptResult{MatchedAlternative: true, Score: 100, Quality: 5},
		},
		{
			name:      "unrelated answer",
			submitted: "comimos",
			canonical: "hablé",
			seconds:   4,
			expected:  domain.AttemptResult{Score: 0, Quality: 0},
		},
		{
			name:      "empty answer",
			submitted: "   ",
			canonical: "hablé",
			seconds:   2,
			expected:  domain.AttemptResult{Score: 0, Quality: 0},
		},
		{
			name:      "negative latency counts as instant",
			submitted: "hablé",
			canonical: "hablé",
			seconds:   -5,
			expected:  domain.AttemptResult{IsCorrect: true, Score: 100, Quality: 5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := validator.Validate(tc.submitted, tc.canonical, tc.alternatives, tc.seconds)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestValidateNaNLatency(t *testing.T) {
	t.Parallel()
	validator := grading.NewDefaultValidator()

	got := validator.Validate("hablé", "hablé", nil, math.NaN())
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 5, got.Quality)
}

func TestScoreNeverExceedsRange(t *testing.T) {
	t.Parallel()
	validator := grading.NewDefaultValidator()

	for _, seconds := range []float64{0, 5, 9.99, 10, 15, 19.99, 20, 300} {
		got := validator.Validate("hablé", "hablé", nil, seconds)
		assert.GreaterOrEqual(t, got.Score, 0)
		assert.LessOrEqual(t, got.Score, 100)
	}
}

func TestScoreBonusWithCustomBase(t *testing.T) {
	t.Parallel()

	params := grading.DefaultParams()
	params.FastBonus = -30
	params.MediumBonus = -10
	validator := grading.NewValidator(params)

	assert.Equal(t, 70, validator.Validate("hablé", "hablé", nil, 3).Score)
	assert.Equal(t, 90, validator.Validate("hablé", "hablé", nil, 12).Score)
	assert.Equal(t, 100, validator.Validate("hablé", "hablé", nil, 25).Score)
}

func TestIsCloseMiss(t *testing.T) {
	t.Parallel()
	validator := grading.NewDefaultValidator()

	assert.True(t, validator.IsCloseMiss("hable", "hablé", nil))
	assert.True(t, validator.IsCloseMiss("hablaste", "hablasteis", nil))
	assert.False(t, validator.IsCloseMiss("comí", "hablé", nil))
	assert.True(t, validator.IsCloseMiss("fuera", "fuese", []string{"fuera hablado", "fueras"}))
	assert.False(t, validator.IsCloseMiss("hablé", "hablé", nil))
}

func TestFeedback(t *testing.T) {
	t.Parallel()

	entry := domain.CatalogEntry{
		Verb:        "hablar",
		Canonical:   "hablé",
		Explanation: "Regular -ar verbs take -é in the first person preterite.",
	}

	assert.Equal(t, "Correct!", grading.Feedback(domain.AttemptResult{IsCorrect: true}, entry))
	assert.Contains(t, grading.Feedback(domain.AttemptResult{MatchedAlternative: true}, entry), "hablé")
	assert.Contains(t, grading.Feedback(domain.AttemptResult{Quality: 2}, entry), "Almost")
	assert.Contains(t, grading.Feedback(domain.AttemptResult{Quality: 0}, entry), entry.Explanation)
}
