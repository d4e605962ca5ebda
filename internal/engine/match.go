package engine

import (
	"iter"

	"github.com/roach88/prolly/internal/term"
)

// Match returns the lazy sequence of bindings under which pattern unifies
// with other.
//
//   - Atom vs equal Atom yields one empty binding, Atom vs Var yields
//     {var: atom}, anything else yields nothing.
//   - Var vs anything yields {var: other}; a Var against itself yields {}.
//   - Compound vs Compound of equal arity yields every conflict-free merge
//     of one candidate per argument position (a lazy Cartesian product).
//     Compound vs Var yields {var: compound}.
//
// Special terms match as the compound they wrap.
func Match(pattern, other term.Term) iter.Seq[term.Binding] {
	return func(yield func(term.Binding) bool) {
		switch p := pattern.(type) {
		case term.Var:
			if ov, ok := other.(term.Var); ok && ov == p {
				yield(term.Binding{})
				return
			}
			yield(term.Binding{p: other})
			return
		case term.Atom:
			switch o := other.(type) {
			case term.Atom:
				if o == p {
					yield(term.Binding{})
				}
			case term.Var:
				yield(term.Binding{o: p})
			}
			return
		}

		if ov, ok := other.(term.Var); ok {
			if _, isCompound := term.Unwrap(pattern); isCompound {
				yield(term.Binding{ov: pattern})
			}
			return
		}

		pc, ok := term.Unwrap(pattern)
		if !ok {
			return
		}
		oc, ok := term.Unwrap(other)
		if !ok || len(pc.Args) != len(oc.Args) {
			return
		}
		for b := range product(pc.Args, oc.Args, term.Binding{}) {
			if !yield(b) {
				return
			}
		}
	}
}

// product walks argument positions left to right, merging one candidate
// binding per position into acc. Combinations that conflict are dropped.
func product(pattern, other []term.Term, acc term.Binding) iter.Seq[term.Binding] {
	return func(yield func(term.Binding) bool) {
		if len(pattern) == 0 {
			yield(acc)
			return
		}
		for b := range Match(pattern[0], other[0]) {
			merged, err := Merge(acc, b)
			if err != nil {
				continue
			}
			for full := range product(pattern[1:], other[1:], merged) {
				if !yield(full) {
					return
				}
			}
		}
	}
}

// Unifies reports whether a and b have at least one unifier.
func Unifies(a, b term.Term) bool {
	for range Match(a, b) {
		return true
	}
	return false
}
