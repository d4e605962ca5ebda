package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/term"
)

func compileString(t *testing.T, src string) (*KnowledgeBase, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileKB(v)
}

func clauseStrings(clauses []term.Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.String()
	}
	return out
}

func TestCompileKBBasic(t *testing.T) {
	kb, err := compileString(t, `
		tags: trueness: {
			default: 1
			merge:   "a, b => a * b"
		}

		facts: [
			["mother", "mary", "alicia"],
			["father", "joseph", "alicia"],
			{fact: ["likes", "bob", "cats"], tags: {trueness: 0.5}},
		]

		rules: parent_m: {
			head: ["parent", "X", "Y"]
			body: [["mother", "X", "Y"]]
		}

		clauses: [
			"(parent, X, Y) if (father, X, Y)",
		]
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"tag trueness default 1 merge a, b => (a * b)",
		"(mother, mary, alicia)",
		"(father, joseph, alicia)",
		"(likes, bob, cats) {trueness: 0.5}",
		"(parent, X, Y) if (mother, X, Y)",
		"(parent, X, Y) if (father, X, Y)",
	}, clauseStrings(kb.Clauses))

	tags, facts, rules := kb.Counts()
	assert.Equal(t, 1, tags)
	assert.Equal(t, 3, facts)
	assert.Equal(t, 2, rules)
}

func TestCompileKBEmpty(t *testing.T) {
	kb, err := compileString(t, `{}`)
	require.NoError(t, err)
	assert.Empty(t, kb.Clauses)
}

func TestCompileKBNumberKinds(t *testing.T) {
	kb, err := compileString(t, `facts: [["n", 1, 1.0, true, "One"]]`)
	require.NoError(t, err)
	require.Len(t, kb.Clauses, 1)

	args := kb.Clauses[0].(*term.Rule).Head.Args
	assert.Equal(t, term.Int(1), args[1])
	assert.Equal(t, term.Float(1), args[2])
	assert.Equal(t, term.Bool(true), args[3])
	assert.Equal(t, term.NewVar("One"), args[4], "capitalized strings are variables")
}

func TestCompileKBNestedTuples(t *testing.T) {
	kb, err := compileString(t, `
		rules: good: {
			head: ["good", "X"]
			body: [["food", "X"], ["not", ["bad", "X"]]]
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, []string{"(good, X) if (food, X) and (not, (bad, X))"}, clauseStrings(kb.Clauses))
}

func TestCompileKBTaggedRule(t *testing.T) {
	kb, err := compileString(t, `
		rules: likely: {
			head: ["likely", "X"]
			tags: {trueness: 0.8}
			body: [["seen", "X"]]
		}
	`)
	require.NoError(t, err)
	head := kb.Clauses[0].(*term.Rule).Head
	assert.Equal(t, map[string]term.Atom{"trueness": term.Float(0.8)}, head.Tags)
}

func TestCompileKBErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"empty fact", `facts: [[]]`, "facts[0]"},
		{"fact not a list", `facts: ["mother"]`, "facts[0]"},
		{"struct without fact", `facts: [{tags: {t: 1}}]`, "facts[0]"},
		{"bad merge", `tags: t: merge: "a, b => a * c"`, "tags.t.merge"},
		{"bad clause", `clauses: ["(a, b"]`, "clauses[0]"},
		{"missing head", `rules: r: body: [["a"]]`, "r.head"},
		{"empty body", `rules: r: {head: ["a"], body: []}`, "r.body"},
		{"body not a list", `rules: r: {head: ["a"], body: "x"}`, "r.body"},
		{"incomplete default", `tags: t: default: int`, "tags.t.default"},
		{"struct tag value", `facts: [{fact: ["a"], tags: {t: {x: 1}}}]`, "facts[0].tags.t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileRuleWithoutBodyIsFact(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`rules: r: head: ["mother", "mary", "alicia"]`)
	require.NoError(t, v.Err())

	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rules.r")))
	require.NoError(t, err)
	assert.True(t, rule.IsFact())
}

func TestCompileErrorFormat(t *testing.T) {
	e := &CompileError{Field: "facts[0]", Message: "tuple must not be empty"}
	assert.Equal(t, "facts[0]: tuple must not be empty", e.Error())
}

func TestFormatCUEError(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`x: 1 & 2`, cue.Filename("kb.cue"))

	err := formatCUEError(v.Validate())
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "kb.cue:1:")

	assert.NoError(t, formatCUEError(nil))
}
