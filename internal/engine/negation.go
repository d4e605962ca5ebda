package engine

import (
	"fmt"
	"iter"

	"github.com/roach88/prolly/internal/term"
)

// Not is negation as failure: (not, Goal) has exactly one empty solution
// when Goal has none, and no solutions otherwise.
//
// No groundness check is made. A Goal with unbound variables asks "is there
// no X such that ...", which is rarely what a rule author means; binding the
// variables earlier in the conjunction is the caller's responsibility.
//
// Goal may be a variable bound to a term earlier in the conjunction. A Goal
// that is still an unbound variable when proved ends the query with a
// SPECIAL_TERM error, since it would otherwise match nothing and succeed.
type Not struct {
	c *term.Compound
}

// NewNot builds a Not from (not, Goal).
func NewNot(c *term.Compound) (Special, error) {
	if len(c.Args) != 2 {
		return nil, fmt.Errorf("expected (not, Goal), got arity %d", len(c.Args))
	}
	switch c.Args[1].(type) {
	case term.Atom:
		return nil, fmt.Errorf("negated goal must be a term, got atom %s", c.Args[1])
	}
	return &Not{c: c}, nil
}

// Goal returns the negated goal.
func (n *Not) Goal() term.Term { return n.c.Args[1] }

func (n *Not) Unwrap() *term.Compound { return n.c }
func (n *Not) String() string { return n.c.String() }
func (n *Not) Vars() []term.Var { return n.c.Vars() }

func (n *Not) Substitute(b term.Binding) term.Term {
	return &Not{c: n.c.Substitute(b).(*term.Compound)}
}

func (n *Not) Normalize(s *term.Scope) term.Term {
	return &Not{c: n.c.Normalize(s).(*term.Compound)}
}

func (n *Not) Prove(p Prover) iter.Seq2[Solution, error] {
	return func(yield func(Solution, error) bool) {
		if v, ok := n.Goal().(term.Var); ok {
			yield(Solution{}, NewSpecialTermError(NotFunctor, fmt.Sprintf("negated goal %s is unbound", v)))
			return
		}
		for _, err := range p.Prove(n.Goal()) {
			if err != nil {
				yield(Solution{}, err)
			}
			return
		}
		yield(Solution{Binding: term.Binding{}}, nil)
	}
}
