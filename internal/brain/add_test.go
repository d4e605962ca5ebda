package brain

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/term"
)

func TestAdd_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		clause term.Clause
	}{
		{"nil clause", nil},
		{"nil rule", (*term.Rule)(nil)},
		{"rule without head", &term.Rule{Body: term.True}},
		{"empty head", &term.Rule{Head: term.NewCompound(), Body: term.True}},
		{"nil body", &term.Rule{Head: term.Tuple("f", "a")}},
		{"atom body", &term.Rule{Head: term.Tuple("f", "a"), Body: term.Str("g")}},
		{"var body", &term.Rule{Head: term.Tuple("f", "X"), Body: term.NewVar("X")}},
		{"empty conjunction", &term.Rule{Head: term.Tuple("f", "a"), Body: &term.Conjunction{}}},
		{"true inside conjunction", &term.Rule{Head: term.Tuple("f", "a"), Body: &term.Conjunction{Goals: []term.Term{term.Tuple("g"), term.True}}}},
		{"bad negation", rule(term.Tuple("f", "X"), term.Tuple("not", term.Tuple("g", "X"), "extra"))},
		{"rule for special", rule(term.Tuple("not", "X"), term.Tuple("g", "X"))},
		{"unnamed tag", &term.TagDecl{}},
		{"nil tag decl", (*term.TagDecl)(nil)},
		{"bad merge rule", &term.TagDecl{Name: "t", Merge: &term.MergeRule{Left: "a", Right: "b", Body: term.Ref("c")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrain(t)
			err := b.Add(tt.clause)
			require.Error(t, err)
			assert.True(t, IsMalformedClause(err), "got %v", err)
			assert.Equal(t, 0, b.Len())
			assert.Empty(t, b.TagDecls())
		})
	}
}

func TestAddAll_Atomic(t *testing.T) {
	b := family(t)
	before := b.Len()

	err := b.AddAll(
		fact("mother", "ann", "bea"),
		&term.TagDecl{Name: "trueness"},
		&term.Rule{Head: term.Tuple("broken")},
	)
	require.Error(t, err)
	assert.Equal(t, before, b.Len(), "no clause of a failed batch is stored")
	assert.Empty(t, b.TagDecls())

	got := queryAll(t, b, term.Tuple("mother", "ann", "X"))
	assert.Empty(t, got)
}

func TestAdd_MalformedErrorMessage(t *testing.T) {
	err := newBrain(t).Add(rule(term.Tuple("f", "X"), term.Tuple("not")))
	require.Error(t, err)

	var ce *ClauseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeMalformedClause, ce.Code)
	assert.Equal(t, "(f, X) if (not)", ce.Clause)
	assert.True(t, engine.IsSpecialTermError(err), "cause is kept")
}

func TestAdd_RulesKeepOrder(t *testing.T) {
	b := family(t)
	rules := b.Rules()
	require.Len(t, rules, 9)
	assert.Equal(t, "(parent, P, C) if (mother, P, C)", rules[0].String())
	assert.Equal(t, "(mother, rita, joseph)", rules[8].String())
}

func TestAdd_NormalizesPerRule(t *testing.T) {
	b := newBrain(t)
	require.NoError(t, b.AddAll(
		rule(term.Tuple("parent", "P", "C"), term.Tuple("mother", "P", "C")),
		rule(term.Tuple("child", "C", "P"), term.Tuple("mother", "P", "C")),
	))

	r0, r1 := b.Rules()[0], b.Rules()[1]
	for _, v0 := range r0.Vars() {
		assert.True(t, v0.Scoped())
		for _, v1 := range r1.Vars() {
			assert.NotEqual(t, v0, v1, "same name in two rules is two variables")
		}
	}
}

func TestAdd_TagDeclarations(t *testing.T) {
	b := newBrain(t)
	one, half := term.Int(1), term.Float(0.5)
	mul := &term.MergeRule{Left: "a", Right: "b", Body: &term.BinOp{Op: '*', Left: term.Ref("a"), Right: term.Ref("b")}}

	require.NoError(t, b.AddAll(
		&term.TagDecl{Name: "trueness", Default: &one, Merge: mul},
		&term.TagDecl{Name: "source"},
	))
	assert.Equal(t, map[string]term.Atom{"trueness": term.Int(1)}, b.DefaultTags())
	assert.Equal(t, map[string]*term.MergeRule{"trueness": mul}, b.TagMergeRules())

	// Redeclaring overwrites but keeps the original position.
	require.NoError(t, b.Add(&term.TagDecl{Name: "trueness", Default: &half}))
	assert.Equal(t, map[string]term.Atom{"trueness": term.Float(0.5)}, b.DefaultTags())
	assert.Empty(t, b.TagMergeRules())

	decls := b.TagDecls()
	require.Len(t, decls, 2)
	assert.Equal(t, "trueness", decls[0].Name)
	assert.Equal(t, "source", decls[1].Name)
}

func TestQuery_MalformedGoal(t *testing.T) {
	b := family(t)

	for _, goal := range []term.Term{nil, term.Str("mother"), term.NewVar("X"), term.True, term.Tuple("not")} {
		_, err := b.QueryAll(context.Background(), goal)
		require.Error(t, err)
		assert.True(t, IsMalformedClause(err), "goal %v: %v", goal, err)
	}
}

func TestQuery_SpecialGoal(t *testing.T) {
	b := newBrain(t)
	n, err := engine.NewNot(term.Tuple("not", term.Tuple("bad", "cats")))
	require.NoError(t, err)

	got := queryAll(t, b, n)
	assert.Len(t, got, 1, "an already converted special term is a valid goal")
}

// =============================================================================
// AddTermType
// =============================================================================

// alwaysTerm is (always, X): one solution, binding nothing.
type alwaysTerm struct{ c *term.Compound }

func (a *alwaysTerm) Unwrap() *term.Compound { return a.c }
func (a *alwaysTerm) String() string { return a.c.String() }
func (a *alwaysTerm) Vars() []term.Var { return a.c.Vars() }
func (a *alwaysTerm) Substitute(b term.Binding) term.Term {
	return &alwaysTerm{c: a.c.Substitute(b).(*term.Compound)}
}
func (a *alwaysTerm) Normalize(s *term.Scope) term.Term {
	return &alwaysTerm{c: a.c.Normalize(s).(*term.Compound)}
}
func (a *alwaysTerm) Prove(engine.Prover) iter.Seq2[engine.Solution, error] {
	return func(yield func(engine.Solution, error) bool) {
		yield(engine.Solution{Binding: term.Binding{}}, nil)
	}
}

func TestAddTermType(t *testing.T) {
	b := newBrain(t)
	b.AddTermType("always", func(c *term.Compound) (engine.Special, error) {
		if len(c.Args) != 2 {
			return nil, errors.New("expected (always, X)")
		}
		return &alwaysTerm{c: c}, nil
	})
	assert.Equal(t, []string{"always", "not"}, b.SpecialFunctors())

	require.NoError(t, b.Add(rule(term.Tuple("ok", "X"), term.Tuple("always", "X"))))
	assert.Len(t, queryAll(t, b, term.Tuple("ok", "anything")), 1)

	err := b.Add(rule(term.Tuple("ok2", "X"), term.Tuple("always", "X", "Y")))
	assert.True(t, IsMalformedClause(err))
}

func TestAddTermType_UnknownFunctorIsOrdinary(t *testing.T) {
	b := newBrain(t)
	require.NoError(t, b.Add(fact("maybe", "rain")))

	got := queryAll(t, b, term.Tuple("maybe", "X"))
	assert.Equal(t, []map[string]any{{"X": "rain"}}, got)
}
