package engine

import (
	"fmt"

	"github.com/roach88/prolly/internal/ir"
	"github.com/roach88/prolly/internal/term"
)

// goalPath is the chain of goals on the current proof branch, innermost
// first. It is immutable: extending a path never affects sibling branches,
// so backtracking needs no cleanup.
//
// A goal that is a variant of one of its ancestors (equal up to consistent
// renaming of variables) cannot produce anything its ancestor does not
// already produce, and re-entering it is how left recursion diverges.
//
// Example loop:
//
//	(ancestor, X, Y) if (ancestor, X, Z) and (parent, Z, Y)
//	?- (ancestor, A, B) → (ancestor, A', Z') → (ancestor, A'', Z'') ...
//	                                            ↑ variant of its parent
type goalPath struct {
	key    string
	parent *goalPath
}

// WouldLoop reports whether key is already on the path.
func (p *goalPath) WouldLoop(key string) bool {
	for n := p; n != nil; n = n.parent {
		if n.key == key {
			return true
		}
	}
	return false
}

// Push returns the path extended with key.
func (p *goalPath) Push(key string) *goalPath {
	return &goalPath{key: key, parent: p}
}

// Depth returns the number of goals on the path.
func (p *goalPath) Depth() int {
	n := 0
	for ; p != nil; p = p.parent {
		n++
	}
	return n
}

// VariantKey returns a key shared by exactly the goals that are equal up to
// variable renaming. Variables are numbered by first occurrence before the
// goal is hashed.
func VariantKey(goal term.Term) (string, error) {
	names := make(map[term.Var]string)
	for i, v := range goal.Vars() {
		names[v] = fmt.Sprintf("_%d", i)
	}
	val := ProjectWith(goal, func(v term.Var) ir.Value {
		return ir.Unbound{Name: names[v]}
	})
	return ir.GoalKey(val)
}
