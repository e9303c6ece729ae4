package domain

import (
	"fmt"
	"strings"
)

// Tier is a human-facing label derived from scheduling state. It is computed on
// every read and never persisted.
type Tier string

// Difficulty tiers.
const (
	TierNew       Tier = "new"
	TierLearning  Tier = "learning"
	TierReviewing Tier = "reviewing"
	TierMastered  Tier = "mastered"
)

// Tier thresholds on the ease factor.
const (
	learningEaseCeiling = 2.0
	masteredEaseFloor   = 2.5
)

// AllTiers lists the tiers in progression order.
var AllTiers = []Tier{TierNew, TierLearning, TierReviewing, TierMastered}

// DeriveTier maps (repetitionCount, easeFactor) to a tier.
func DeriveTier(repetitionCount int, easeFactor float64) Tier {
	switch {
	case repetitionCount == 0:
		return TierNew
	case easeFactor < learningEaseCeiling:
		return TierLearning
	case easeFactor > masteredEaseFloor:
		return TierMastered
	default:
		return TierReviewing
	}
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the known tiers.
func (t Tier) IsValid() bool {
	switch t {
	case TierNew, TierLearning, TierReviewing, TierMastered:
		return true
	default:
		return false
	}
}
