package catalog

import (
	"strings"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// Matcher applies the catalog-level part of session constraints: verbs,
// tenses, persons, theme and filter. Difficulty depends on learner state and
// is applied by the caller.
type Matcher struct {
	verbs   map[string]struct{}
	tenses  map[string]struct{}
	persons map[string]struct{}
	theme   string
	filter  *Filter
}

// NewMatcher compiles constraints into a Matcher. env may be nil when
// constraints carry no filter expression.
func NewMatcher(constraints domain.Constraints, env *FilterEnv) (*Matcher, error) {
	m := &Matcher{
		verbs:   toSet(constraints.Verbs),
		tenses:  toSet(constraints.Tenses),
		persons: toSet(constraints.Persons),
		theme:   strings.ToLower(strings.TrimSpace(constraints.Theme)),
	}

	if expr := strings.TrimSpace(constraints.Filter); expr != "" {
		if env == nil {
			return nil, domain.NewValidationError("filter", "filters are not supported", ErrInvalidFilter)
		}
		filter, err := env.Compile(expr)
		if err != nil {
			return nil, err
		}
		m.filter = filter
	}

	return m, nil
}

// Match reports whether entry satisfies every constraint.
func (m *Matcher) Match(entry domain.CatalogEntry) (bool, error) {
	if !inSet(m.verbs, entry.Verb) || !inSet(m.tenses, entry.Tense) || !inSet(m.persons, entry.Person) {
		return false, nil
	}
	if m.theme != "" && !matchesTheme(entry, m.theme) {
		return false, nil
	}
	if m.filter != nil {
		return m.filter.Match(entry)
	}
	return true, nil
}

// Filter returns the entries that match, preserving order.
func (m *Matcher) Filter(entries []domain.CatalogEntry) ([]domain.CatalogEntry, error) {
	var matched []domain.CatalogEntry
	for _, entry := range entries {
		ok, err := m.Match(entry)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// matchesTheme matches theme tags and verb exactly, and translation or
// explanation by substring.
func matchesTheme(entry domain.CatalogEntry, theme string) bool {
	for _, t := range entry.Themes {
		if strings.EqualFold(strings.TrimSpace(t), theme) {
			return true
		}
	}
	if strings.EqualFold(entry.Verb, theme) {
		return true
	}
	return strings.Contains(strings.ToLower(entry.Translation), theme) ||
		strings.Contains(strings.ToLower(entry.Explanation), theme)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// inSet treats an empty set as unrestricted.
func inSet(set map[string]struct{}, value string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[strings.ToLower(value)]
	return ok
}
