package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/prolly/internal/term"
)

// CompileRule parses one structured rule. The CUE value should be the rule
// struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rules: sibling: { head: [...], body: [...] }`)
//	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rules.sibling")))
//
// The head is a tuple list with optional tags; the body is a non-empty list
// of goal tuples, proven left to right. A rule without a body is a fact.
func CompileRule(v cue.Value) (*term.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// The rule ID is the struct label; it only names the rule in errors.
	id := "rule"
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		id = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	headVal := v.LookupPath(cue.ParsePath("head"))
	if !headVal.Exists() {
		return nil, &CompileError{
			Field:   id + ".head",
			Message: "head is required",
			Pos:     v.Pos(),
		}
	}
	head, err := compileTuple(headVal, id+".head")
	if err != nil {
		return nil, err
	}

	tags, err := compileTagValues(v.LookupPath(cue.ParsePath("tags")), id+".tags")
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		head = head.WithTags(tags)
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return term.NewFact(head), nil
	}

	body, err := parseBody(bodyVal, id+".body")
	if err != nil {
		return nil, err
	}
	return term.NewRule(head, body), nil
}

// parseBody turns a list of goal tuples into a conjunction.
func parseBody(v cue.Value, field string) (term.Term, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "body must be a list of goals",
			Pos:     v.Pos(),
		}
	}

	var goals []term.Term
	for i := 0; iter.Next(); i++ {
		goal, err := compileTuple(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if len(goals) == 0 {
		return nil, &CompileError{
			Field:   field,
			Message: "body must have at least one goal",
			Pos:     v.Pos(),
		}
	}
	return term.And(goals...), nil
}

// compileRules extracts the rules struct in field order.
func compileRules(v cue.Value) ([]term.Clause, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []term.Clause
	for iter.Next() {
		rule, err := CompileRule(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}
