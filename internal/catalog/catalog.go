package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/verbdrill/internal/domain"
)

var (
	// ErrUnknownExercise is returned when no entry exists for a (verb, tense, person).
	ErrUnknownExercise = errors.New("unknown exercise")

	// ErrInvalidEntry is returned when a catalog entry is missing required fields.
	ErrInvalidEntry = errors.New("invalid catalog entry")

	// ErrDuplicateEntry is returned when two entries share an item key.
	ErrDuplicateEntry = errors.New("duplicate catalog entry")
)

// Catalog is the read-only accessor consumed by the engine.
type Catalog interface {
	// Lookup returns the entry for the exercise, or ErrUnknownExercise.
	Lookup(verb, tense, person string) (domain.CatalogEntry, error)

	// Entries returns every entry ordered by item key. Callers must not
	// modify the returned entries.
	Entries() []domain.CatalogEntry
}

// Memory is an immutable in-memory Catalog.
type Memory struct {
	entries []domain.CatalogEntry
	byKey   map[string]int
}

var _ Catalog = (*Memory)(nil)

// New builds a Memory catalog, validating every entry.
func New(entries []domain.CatalogEntry) (*Memory, error) {
	sorted := make([]domain.CatalogEntry, 0, len(entries))
	for i, entry := range entries {
		entry = normalizeEntry(entry)
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		sorted = append(sorted, entry)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	byKey := make(map[string]int, len(sorted))
	for i, entry := range sorted {
		key := entry.Key()
		if _, exists := byKey[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, key)
		}
		byKey[key] = i
	}

	return &Memory{entries: sorted, byKey: byKey}, nil
}

// Lookup implements Catalog.
func (m *Memory) Lookup(verb, tense, person string) (domain.CatalogEntry, error) {
	idx, ok := m.byKey[domain.ItemKey(verb, tense, person)]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w: %s %s %s", ErrUnknownExercise, verb, tense, person)
	}
	return m.entries[idx], nil
}

// Entries implements Catalog.
func (m *Memory) Entries() []domain.CatalogEntry {
	return m.entries
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	return len(m.entries)
}

func normalizeEntry(entry domain.CatalogEntry) domain.CatalogEntry {
	entry.Verb = strings.ToLower(strings.TrimSpace(entry.Verb))
	entry.Tense = strings.ToLower(strings.TrimSpace(entry.Tense))
	entry.Person = strings.ToLower(strings.TrimSpace(entry.Person))
	entry.Canonical = strings.TrimSpace(entry.Canonical)
	return entry
}

func validateEntry(entry domain.CatalogEntry) error {
	switch {
	case entry.Verb == "":
		return fmt.Errorf("%w: verb is required", ErrInvalidEntry)
	case entry.Tense == "":
		return fmt.Errorf("%w: tense is required", ErrInvalidEntry)
	case entry.Canonical == "":
		return fmt.Errorf("%w: canonical form is required for %s", ErrInvalidEntry, entry.Key())
	case strings.Contains(entry.Verb+entry.Tense+entry.Person, "|"):
		return fmt.Errorf("%w: %q contains '|'", ErrInvalidEntry, entry.Key())
	}
	return nil
}
