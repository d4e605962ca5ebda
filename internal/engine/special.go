package engine

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/prolly/internal/term"
)

// Special is a term whose proof overrides ordinary rule resolution.
//
// A Special wraps the compound it was built from, so matching, equality and
// projection still see an ordinary tuple. Substitute and Normalize must
// return a Special of the same kind.
type Special interface {
	term.Wrapper

	// Prove yields the solutions of the term. p proves ordinary sub-goals
	// within the same query, sharing its limits and variable pool.
	Prove(p Prover) iter.Seq2[Solution, error]
}

// Prover proves a goal within a running query.
type Prover interface {
	Prove(goal term.Term) iter.Seq2[Solution, error]
}

// Factory builds a Special from a compound whose functor was registered.
// It returns an error when the compound has the wrong shape.
type Factory func(c *term.Compound) (Special, error)

// NotFunctor is the functor of the built-in negation.
const NotFunctor = "not"

// Registry maps reserved functors to Special factories.
// Each Database owns one registry; registering never affects another
// database.
type Registry struct {
	factories map[term.Atom]Factory
}

// NewRegistry creates a registry with the built-in special terms.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[term.Atom]Factory)}
	r.Register(NotFunctor, NewNot)
	return r
}

// Register installs factory for functor, replacing any earlier one.
func (r *Registry) Register(functor string, factory Factory) {
	r.factories[term.Str(functor)] = factory
}

// Lookup returns the factory registered for functor.
func (r *Registry) Lookup(functor term.Atom) (Factory, bool) {
	f, ok := r.factories[functor]
	return f, ok
}

// Functors returns the registered functor names in lexical order.
func (r *Registry) Functors() []string {
	out := make([]string, 0, len(r.factories))
	for a := range r.factories {
		out = append(out, fmt.Sprint(a.Value()))
	}
	slices.Sort(out)
	return out
}

// Convert replaces, through every sub-term, each compound whose functor is
// registered with the product of its factory. Unknown functors are left as
// ordinary compounds. Arguments are converted before their parent.
func (r *Registry) Convert(t term.Term) (term.Term, error) {
	switch x := t.(type) {
	case *term.Compound:
		return r.convertCompound(x)
	case *term.Conjunction:
		goals := make([]term.Term, len(x.Goals))
		for i, g := range x.Goals {
			cg, err := r.Convert(g)
			if err != nil {
				return nil, err
			}
			goals[i] = cg
		}
		return &term.Conjunction{Goals: goals}, nil
	default:
		return t, nil
	}
}

// ConvertArgs converts the arguments of c but never c itself.
func (r *Registry) ConvertArgs(c *term.Compound) (*term.Compound, error) {
	args := make([]term.Term, len(c.Args))
	for i, arg := range c.Args {
		ca, err := r.Convert(arg)
		if err != nil {
			return nil, err
		}
		args[i] = ca
	}
	return &term.Compound{Args: args, Tags: c.Tags}, nil
}

func (r *Registry) convertCompound(c *term.Compound) (term.Term, error) {
	converted, err := r.ConvertArgs(c)
	if err != nil {
		return nil, err
	}
	functor, ok := converted.Functor()
	if !ok {
		return converted, nil
	}
	factory, ok := r.factories[functor]
	if !ok {
		return converted, nil
	}
	special, err := factory(converted)
	if err != nil {
		return nil, NewSpecialTermError(functor.String(), err.Error())
	}
	return special, nil
}

// IsSpecial reports whether c's functor is registered.
func (r *Registry) IsSpecial(c *term.Compound) bool {
	functor, ok := c.Functor()
	if !ok {
		return false
	}
	_, ok = r.factories[functor]
	return ok
}
