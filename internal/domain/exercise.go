package domain

// ExerciseSource tells the caller why an exercise was selected.
type ExerciseSource string

// Exercise sources.
const (
	SourceDue      ExerciseSource = "due"
	SourceNew      ExerciseSource = "new"
	SourcePractice ExerciseSource = "practice"
)

// ExerciseSpec is one exercise in a practice session.
type ExerciseSpec struct {
	Item        ReviewItem     `json:"item"`
	Prompt      string         `json:"prompt"`
	Tier        Tier           `json:"tier"`
	DaysOverdue int            `json:"days_overdue"`
	Source      ExerciseSource `json:"source"`
}

// Constraints restrict which catalog entries a session may draw from. Empty
// fields do not restrict.
type Constraints struct {
	Verbs   []string `json:"verbs,omitempty"`
	Tenses  []string `json:"tenses,omitempty"`
	Persons []string `json:"persons,omitempty"`

	// Theme is free text matched against entry themes, verb, translation and explanation.
	Theme string `json:"theme,omitempty"`
	// Filter is a CEL boolean expression evaluated per catalog entry.
	Filter string `json:"filter,omitempty"`

	Difficulty *Tier `json:"difficulty,omitempty"`
}
