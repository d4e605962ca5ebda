package compiler

import (
	"fmt"

	"github.com/roach88/prolly/internal/term"
)

// Validation error codes (E100-E199)
const (
	ErrUndefinedPredicate = "E101" // body goal matches no clause head
	ErrDuplicateTagDecl   = "E102" // tag declared more than once
	ErrNonNumericTag      = "E103" // merged tag has a non-numeric value
	ErrEmptyKnowledge     = "E104" // no clauses at all
)

// ValidationError represents a knowledge-base lint error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks clauses for mistakes a Brain accepts but that make
// queries fail or error at run time. Returns all errors found (does not
// fail-fast).
//
// specials lists functors handled by special terms besides "not"; goals
// with those functors are never undefined.
func Validate(clauses []term.Clause, specials ...string) []ValidationError {
	var errs []ValidationError

	// E104: nothing to query
	if len(clauses) == 0 {
		return []ValidationError{{
			Field:   "clauses",
			Message: "knowledge base has no clauses",
			Code:    ErrEmptyKnowledge,
		}}
	}

	defined := make(map[string]bool)
	wildArity := make(map[int]bool)
	decls := make(map[string]*term.TagDecl)

	for i, c := range clauses {
		switch x := c.(type) {
		case *term.Rule:
			if key, ok := PredicateKey(x.Head); ok {
				defined[key] = true
			} else {
				wildArity[x.Head.Arity()] = true
			}
		case *term.TagDecl:
			// E102: later declarations silently replace earlier ones
			if _, dup := decls[x.Name]; dup {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("clauses[%d]", i),
					Message: fmt.Sprintf("tag %q declared more than once; the last declaration wins", x.Name),
					Code:    ErrDuplicateTagDecl,
				})
			}
			decls[x.Name] = x
		}
	}

	skip := make(map[string]bool, len(specials))
	for _, s := range specials {
		skip[s] = true
	}

	for i, c := range clauses {
		switch x := c.(type) {
		case *term.Rule:
			errs = append(errs, validateGoals(x, i, defined, wildArity, skip)...)
			errs = append(errs, validateTagValues(x.Head.Tags, decls, fmt.Sprintf("clauses[%d]", i))...)
		case *term.TagDecl:
			// E103: a merge over a non-numeric default always fails
			if x.Merge != nil && x.Default != nil {
				if _, ok := x.Default.Number(); !ok {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("clauses[%d]", i),
						Message: fmt.Sprintf("tag %q has a merge rule but default %s is not a number", x.Name, x.Default),
						Code:    ErrNonNumericTag,
					})
				}
			}
		}
	}

	return errs
}

// validateGoals reports body goals that no clause can prove (E101).
func validateGoals(r *term.Rule, idx int, defined map[string]bool, wildArity map[int]bool, skip map[string]bool) []ValidationError {
	var errs []ValidationError
	for _, goal := range bodyGoals(r.Body) {
		key, ok := PredicateKey(goal)
		if !ok || defined[key] || wildArity[goal.Arity()] {
			continue
		}
		if f, _ := goal.Functor(); skip[fmt.Sprint(f.Value())] {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("clauses[%d]", idx),
			Message: fmt.Sprintf("undefined predicate %s in %s", key, r),
			Code:    ErrUndefinedPredicate,
		})
	}
	return errs
}

// validateTagValues reports non-numeric values of tags that declare a merge
// rule (E103).
func validateTagValues(tags map[string]term.Atom, decls map[string]*term.TagDecl, field string) []ValidationError {
	var errs []ValidationError
	for _, name := range term.SortedTagNames(tags) {
		decl, ok := decls[name]
		if !ok || decl.Merge == nil {
			continue
		}
		if _, ok := tags[name].Number(); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".tags." + name,
				Message: fmt.Sprintf("tag %q merges numerically but the value is %s", name, tags[name]),
				Code:    ErrNonNumericTag,
			})
		}
	}
	return errs
}
