package grading

import (
	"fmt"
	"strings"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// Feedback renders a short learner-facing message for a graded attempt.
func Feedback(result domain.AttemptResult, entry domain.CatalogEntry) string {
	switch {
	case result.IsCorrect:
		return "Correct!"
	case result.MatchedAlternative:
		return fmt.Sprintf("Correct. Also accepted: %s.", entry.Canonical)
	case result.Quality == QualityCloseMiss:
		return withExplanation(fmt.Sprintf("Almost! The answer is %s.", entry.Canonical), entry)
	default:
		return withExplanation(fmt.Sprintf("Not quite. The answer is %s.", entry.Canonical), entry)
	}
}

func withExplanation(msg string, entry domain.CatalogEntry) string {
	explanation := strings.TrimSpace(entry.Explanation)
	if explanation == "" {
		return msg
	}
	return msg + " " + explanation
}
