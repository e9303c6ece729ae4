package domain

import "strings"

// CatalogEntry is one conjugated form supplied by the content catalog. The
// engine treats entries as read-only input.
type CatalogEntry struct {
	Verb         string   `json:"verb" yaml:"verb"`
	Tense        string   `json:"tense" yaml:"tense"`
	Person       string   `json:"person" yaml:"person"`
	Canonical    string   `json:"canonical" yaml:"canonical"`
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives"`
	Explanation  string   `json:"explanation,omitempty" yaml:"explanation"`
	Prompt       string   `json:"prompt,omitempty" yaml:"prompt"`
	Translation  string   `json:"translation,omitempty" yaml:"translation"`
	Themes       []string `json:"themes,omitempty" yaml:"themes"`
}

// Key returns the review item key for the entry.
func (e CatalogEntry) Key() string {
	return ItemKey(e.Verb, e.Tense, e.Person)
}

// PromptText returns the prompt shown to the learner, falling back to a
// generated one when the catalog has none.
func (e CatalogEntry) PromptText() string {
	if strings.TrimSpace(e.Prompt) != "" {
		return e.Prompt
	}
	if e.Person == "" {
		return e.Verb + " (" + e.Tense + ")"
	}
	return e.Person + " · " + e.Verb + " (" + e.Tense + ")"
}

// Item returns the review item for the entry and learner.
func (e CatalogEntry) Item(learnerID string) ReviewItem {
	return ReviewItem{
		LearnerID: learnerID,
		Verb:      normalizeKeyPart(e.Verb),
		Tense:     normalizeKeyPart(e.Tense),
		Person:    normalizeKeyPart(e.Person),
	}
}
