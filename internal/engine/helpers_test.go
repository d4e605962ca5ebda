package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/term"
)

// kb is a minimal in-test database: normalized, converted rules plus tags.
type kb struct {
	pool  *VarPool
	reg   *Registry
	rules []*term.Rule
	tags  TagSet
}

func newKB() *kb {
	return &kb{
		pool: NewVarPool(),
		reg:  NewRegistry(),
		tags: TagSet{Defaults: map[string]term.Atom{}, Rules: map[string]*term.MergeRule{}},
	}
}

func (k *kb) add(t *testing.T, rules ...*term.Rule) *kb {
	t.Helper()
	for _, r := range rules {
		n := r.Normalize(k.pool)
		head, err := k.reg.ConvertArgs(n.Head)
		require.NoError(t, err)
		body, err := k.reg.Convert(n.Body)
		require.NoError(t, err)
		k.rules = append(k.rules, &term.Rule{Head: head, Body: body})
	}
	return k
}

func (k *kb) fact(t *testing.T, vals ...any) *kb {
	return k.add(t, term.NewFact(term.Tuple(vals...)))
}

func (k *kb) resolver(opts ...Option) *Resolver {
	return NewResolver(k.rules, k.tags, opts...)
}

// goal normalizes a query term with a pool seeded past the rule templates.
func (k *kb) goal(t *testing.T, g term.Term) (term.Term, *VarPool) {
	t.Helper()
	pool := NewVarPoolAt(k.pool.Current())
	n := g.Normalize(term.NewScope(pool))
	conv, err := k.reg.Convert(n)
	require.NoError(t, err)
	return conv, pool
}

// solveAll runs a query to exhaustion and renders each solution as
// {name: value} strings.
func (k *kb) solveAll(t *testing.T, g term.Term, opts ...Option) ([]map[string]string, error) {
	t.Helper()
	goal, pool := k.goal(t, g)
	var out []map[string]string
	for sol, err := range k.resolver(opts...).Solve(context.Background(), pool, goal) {
		if err != nil {
			return out, err
		}
		out = append(out, render(sol.Binding))
	}
	return out, nil
}

func render(b term.Binding) map[string]string {
	out := make(map[string]string, len(b))
	for v, val := range b {
		out[v.Name] = val.String()
	}
	return out
}

func rule(head *term.Compound, body ...term.Term) *term.Rule {
	return term.NewRule(head, term.And(body...))
}

// family loads the parent/grandparent/sibling fixture.
func family(t *testing.T) *kb {
	k := newKB()
	k.add(t,
		rule(term.Tuple("parent", "P", "C"), term.Tuple("mother", "P", "C")),
		rule(term.Tuple("parent", "P", "C"), term.Tuple("father", "P", "C")),
		rule(term.Tuple("grandparent", "G", "C"),
			term.Tuple("parent", "G", "P"), term.Tuple("parent", "P", "C")),
		rule(term.Tuple("sibling", "X", "Y"),
			term.Tuple("parent", "P", "X"), term.Tuple("parent", "P", "Y")),
	)
	k.fact(t, "mother", "mary", "alicia")
	k.fact(t, "father", "joseph", "alicia")
	k.fact(t, "mother", "mary", "mike")
	k.fact(t, "father", "joseph", "mike")
	k.fact(t, "mother", "rita", "joseph")
	return k
}
