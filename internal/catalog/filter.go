package catalog

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/phrazzld/verbdrill/internal/domain"
)

// ErrInvalidFilter is returned when a filter expression does not compile to a
// boolean predicate.
var ErrInvalidFilter = errors.New("invalid filter expression")

// FilterEnv compiles CEL filter expressions over catalog entries. The
// variables available to an expression are verb, tense, person, canonical,
// translation (strings) and themes (list of strings), e.g.
//
//	verb.endsWith("ir") && "travel" in themes
//
// A FilterEnv is safe for concurrent use.
type FilterEnv struct {
	env *cel.Env
}

// NewFilterEnv creates the CEL environment for catalog filters.
func NewFilterEnv() (*FilterEnv, error) {
	env, err := cel.NewEnv(
		cel.Variable("verb", cel.StringType),
		cel.Variable("tense", cel.StringType),
		cel.Variable("person", cel.StringType),
		cel.Variable("canonical", cel.StringType),
		cel.Variable("translation", cel.StringType),
		cel.Variable("themes", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}
	return &FilterEnv{env: env}, nil
}

// Filter is a compiled predicate over catalog entries.
type Filter struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. Errors wrap ErrInvalidFilter and are
// reported as validation errors.
func (f *FilterEnv) Compile(expr string) (*Filter, error) {
	ast, issues := f.env.Compile(expr)
	if issues.Err() != nil {
		return nil, domain.NewValidationError("filter", issues.Err().Error(), ErrInvalidFilter)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, domain.NewValidationError(
			"filter",
			fmt.Sprintf("must evaluate to bool, got %s", ast.OutputType()),
			ErrInvalidFilter,
		)
	}

	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, domain.NewValidationError("filter", err.Error(), ErrInvalidFilter)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter against entry.
func (f *Filter) Match(entry domain.CatalogEntry) (bool, error) {
	themes := entry.Themes
	if themes == nil {
		themes = []string{}
	}

	out, _, err := f.prg.Eval(map[string]any{
		"verb":        entry.Verb,
		"tense":       entry.Tense,
		"person":      entry.Person,
		"canonical":   entry.Canonical,
		"translation": entry.Translation,
		"themes":      themes,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q on %s: %w", f.expr, entry.Key(), err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q produced %T", ErrInvalidFilter, f.expr, out.Value())
	}
	return matched, nil
}
