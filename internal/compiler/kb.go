package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/prolly/internal/parse"
	"github.com/roach88/prolly/internal/term"
)

// KnowledgeBase is the compiled form of a CUE knowledge base.
type KnowledgeBase struct {
	// Clauses in the order a Brain should add them: tag declarations,
	// facts, structured rules, then text clauses.
	Clauses []term.Clause
}

// Counts returns the number of tag declarations, facts and rules.
func (kb *KnowledgeBase) Counts() (tags, facts, rules int) {
	for _, c := range kb.Clauses {
		switch x := c.(type) {
		case *term.TagDecl:
			tags++
		case *term.Rule:
			if x.IsFact() {
				facts++
			} else {
				rules++
			}
		}
	}
	return tags, facts, rules
}

// CompileKB compiles a CUE value into a KnowledgeBase.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// All top-level fields are optional:
//
//	tags: trueness: {default: 1, merge: "a, b => a * b"}
//	facts: [
//		["mother", "mary", "alicia"],
//		{fact: ["likes", "bob", "cats"], tags: {trueness: 0.5}},
//	]
//	rules: parent: {head: ["parent", "X", "Y"], body: [["mother", "X", "Y"]]}
//	clauses: ["(sibling, X, Y) if (parent, P, X) and (parent, P, Y)"]
//
// Inside facts and rules, strings starting with an upper-case letter or
// '_' are variables, lists are tuples, and numbers keep their CUE kind.
// Clauses use the text syntax of package parse.
func CompileKB(v cue.Value) (*KnowledgeBase, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kb := &KnowledgeBase{}

	tags, err := compileTags(v)
	if err != nil {
		return nil, err
	}
	kb.Clauses = append(kb.Clauses, tags...)

	facts, err := compileFacts(v)
	if err != nil {
		return nil, err
	}
	kb.Clauses = append(kb.Clauses, facts...)

	rules, err := compileRules(v)
	if err != nil {
		return nil, err
	}
	kb.Clauses = append(kb.Clauses, rules...)

	clauses, err := compileClauses(v)
	if err != nil {
		return nil, err
	}
	kb.Clauses = append(kb.Clauses, clauses...)

	return kb, nil
}

// compileTags extracts tag declarations in field order.
func compileTags(v cue.Value) ([]term.Clause, error) {
	tagsVal := v.LookupPath(cue.ParsePath("tags"))
	if !tagsVal.Exists() {
		return nil, nil
	}

	iter, err := tagsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []term.Clause
	for iter.Next() {
		name := iter.Label()
		declVal := iter.Value()
		decl := &term.TagDecl{Name: name}

		defVal := declVal.LookupPath(cue.ParsePath("default"))
		if defVal.Exists() {
			a, err := compileAtom(defVal, fmt.Sprintf("tags.%s.default", name))
			if err != nil {
				return nil, err
			}
			decl.Default = &a
		}

		mergeVal := declVal.LookupPath(cue.ParsePath("merge"))
		if mergeVal.Exists() {
			src, err := mergeVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			rule, err := parse.ParseMergeRule(src)
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("tags.%s.merge", name),
					Message: err.Error(),
					Pos:     mergeVal.Pos(),
				}
			}
			decl.Merge = rule
		}

		out = append(out, decl)
	}
	return out, nil
}

// compileFacts extracts facts. An entry is either a tuple list or a struct
// {fact: [...], tags: {...}}.
func compileFacts(v cue.Value) ([]term.Clause, error) {
	factsVal := v.LookupPath(cue.ParsePath("facts"))
	if !factsVal.Exists() {
		return nil, nil
	}

	iter, err := factsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []term.Clause
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("facts[%d]", i)
		entry := iter.Value()

		tupleVal := entry
		var tags map[string]term.Atom
		if entry.IncompleteKind() == cue.StructKind {
			tupleVal = entry.LookupPath(cue.ParsePath("fact"))
			if !tupleVal.Exists() {
				return nil, &CompileError{
					Field:   field,
					Message: "fact entry needs a fact list",
					Pos:     entry.Pos(),
				}
			}
			tags, err = compileTagValues(entry.LookupPath(cue.ParsePath("tags")), field+".tags")
			if err != nil {
				return nil, err
			}
		}

		head, err := compileTuple(tupleVal, field)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			head = head.WithTags(tags)
		}
		out = append(out, term.NewFact(head))
	}
	return out, nil
}

// compileClauses parses the clauses list with the text front-end.
func compileClauses(v cue.Value) ([]term.Clause, error) {
	clausesVal := v.LookupPath(cue.ParsePath("clauses"))
	if !clausesVal.Exists() {
		return nil, nil
	}

	iter, err := clausesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []term.Clause
	for i := 0; iter.Next(); i++ {
		src, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		parsed, err := parse.ParseProgram(src)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("clauses[%d]", i),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, parsed...)
	}
	return out, nil
}

// compileTagValues reads an optional {name: atom} struct.
func compileTagValues(v cue.Value, field string) (map[string]term.Atom, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	tags := make(map[string]term.Atom)
	for iter.Next() {
		name := iter.Label()
		a, err := compileAtom(iter.Value(), field+"."+name)
		if err != nil {
			return nil, err
		}
		tags[name] = a
	}
	return tags, nil
}

// compileTuple converts a CUE list into a compound. Nested lists become
// nested compounds.
func compileTuple(v cue.Value, field string) (*term.Compound, error) {
	if v.IncompleteKind() != cue.ListKind {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected a list, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var args []term.Term
	for i := 0; iter.Next(); i++ {
		arg, err := compileArg(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return nil, &CompileError{
			Field:   field,
			Message: "tuple must not be empty",
			Pos:     v.Pos(),
		}
	}
	return term.NewCompound(args...), nil
}

func compileArg(v cue.Value, field string) (term.Term, error) {
	switch v.IncompleteKind() {
	case cue.ListKind:
		return compileTuple(v, field)
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if term.IsVarName(s) {
			return term.NewVar(s), nil
		}
		return term.Str(s), nil
	default:
		return compileAtom(v, field)
	}
}

// compileAtom converts a concrete CUE scalar into an atom. Ints stay
// integers and floats stay floats.
func compileAtom(v cue.Value, field string) (term.Atom, error) {
	if !v.IsConcrete() {
		return term.Atom{}, &CompileError{
			Field:   field,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return term.Atom{}, formatCUEError(err)
		}
		return term.Str(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return term.Atom{}, formatCUEError(err)
		}
		return term.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return term.Atom{}, formatCUEError(err)
		}
		return term.Float(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return term.Atom{}, formatCUEError(err)
		}
		return term.Bool(b), nil
	default:
		return term.Atom{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
