package domain

import (
	"fmt"
	"strings"
)

// itemKeySeparator joins the parts of a review item key.
const itemKeySeparator = "|"

// ReviewItem identifies a reviewable unit of knowledge for one learner: a verb
// conjugated in a tense for a grammatical person. Person may be empty for
// tense-level items that are not tracked per person.
type ReviewItem struct {
	LearnerID string `json:"learner_id"`
	Verb      string `json:"verb"`
	Tense     string `json:"tense"`
	Person    string `json:"person,omitempty"`
}

// NewReviewItem creates a ReviewItem with normalized verb, tense and person.
func NewReviewItem(learnerID, verb, tense, person string) (ReviewItem, error) {
	item := ReviewItem{
		LearnerID: strings.TrimSpace(learnerID),
		Verb:      normalizeKeyPart(verb),
		Tense:     normalizeKeyPart(tense),
		Person:    normalizeKeyPart(person),
	}
	if err := item.Validate(); err != nil {
		return ReviewItem{}, err
	}
	return item, nil
}

// Validate checks that the item has a learner, a verb and a tense.
func (i ReviewItem) Validate() error {
	if i.LearnerID == "" {
		return NewValidationError("learner_id", "is required", ErrEmptyLearnerID)
	}
	if i.Verb == "" {
		return NewValidationError("verb", "is required", nil)
	}
	if i.Tense == "" {
		return NewValidationError("tense", "is required", nil)
	}
	if strings.Contains(i.Verb+i.Tense+i.Person, itemKeySeparator) {
		return NewValidationError("item", "must not contain '|'", ErrInvalidItemKey)
	}
	return nil
}

// Key returns the learner-independent item key "verb|tense|person".
// Keys order review items deterministically when due dates tie.
func (i ReviewItem) Key() string {
	return ItemKey(i.Verb, i.Tense, i.Person)
}

// String implements fmt.Stringer.
func (i ReviewItem) String() string {
	return fmt.Sprintf("%s/%s", i.LearnerID, i.Key())
}

// ItemKey builds an item key from its parts.
func ItemKey(verb, tense, person string) string {
	return strings.Join([]string{
		normalizeKeyPart(verb),
		normalizeKeyPart(tense),
		normalizeKeyPart(person),
	}, itemKeySeparator)
}

// ParseItemKey splits an item key back into a ReviewItem for learnerID.
func ParseItemKey(learnerID, key string) (ReviewItem, error) {
	parts := strings.Split(key, itemKeySeparator)
	if len(parts) != 3 {
		return ReviewItem{}, fmt.Errorf("%w: %q", ErrInvalidItemKey, key)
	}
	return NewReviewItem(learnerID, parts[0], parts[1], parts[2])
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
