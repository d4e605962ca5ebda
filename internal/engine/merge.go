package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/prolly/internal/term"
)

// ErrConflict reports that two bindings cannot be combined consistently.
//
// Conflict is expected control flow, not a failure: every caller treats it
// as "zero solutions on this branch" and moves on. It never leaves the
// engine.
var ErrConflict = errors.New("conflicting bindings")

// Merge combines two bindings into one consistent binding.
//
// Variables bound on one side only are copied through. A variable bound on
// both sides keeps its value when the values are equal; otherwise both
// values are resolved through the accumulating binding and unified, which
// may bind further variables. When no consistent resolution exists Merge
// returns ErrConflict. Neither input is modified.
func Merge(a, b term.Binding) (term.Binding, error) {
	if len(b) == 0 {
		return a, nil
	}
	if len(a) == 0 {
		return b, nil
	}
	out := a.Clone()
	for _, v := range b.SortedVars() {
		if err := unify(out, v, b[v]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// unify makes x and y equal under s, extending s in place.
func unify(s term.Binding, x, y term.Term) error {
	x = term.Walk(x, s)
	y = term.Walk(y, s)

	if xv, ok := x.(term.Var); ok {
		if yv, ok := y.(term.Var); ok && xv == yv {
			return nil
		}
		return assign(s, xv, y)
	}
	if yv, ok := y.(term.Var); ok {
		return assign(s, yv, x)
	}

	if xa, ok := x.(term.Atom); ok {
		if ya, ok := y.(term.Atom); ok && xa == ya {
			return nil
		}
		return ErrConflict
	}

	xc, ok := term.Unwrap(x)
	if !ok {
		return ErrConflict
	}
	yc, ok := term.Unwrap(y)
	if !ok || len(xc.Args) != len(yc.Args) {
		return ErrConflict
	}
	for i := range xc.Args {
		if err := unify(s, xc.Args[i], yc.Args[i]); err != nil {
			return err
		}
	}
	return nil
}

// assign binds v to t unless t contains v, which would make a cyclic term.
func assign(s term.Binding, v term.Var, t term.Term) error {
	if term.Occurs(v, t, s) {
		return ErrConflict
	}
	s[v] = t
	return nil
}

// TagSet holds the tag declarations of a database: default values and
// merge rules, keyed by tag name.
type TagSet struct {
	Defaults map[string]term.Atom
	Rules    map[string]*term.MergeRule
}

// WithDefaults returns tags overlaid on the declared defaults.
func (ts TagSet) WithDefaults(tags map[string]term.Atom) map[string]term.Atom {
	if len(ts.Defaults) == 0 {
		return tags
	}
	out := make(map[string]term.Atom, len(ts.Defaults)+len(tags))
	for k, v := range ts.Defaults {
		out[k] = v
	}
	for k, v := range tags {
		out[k] = v
	}
	return out
}

// MergeTags combines the tags of two derivations. Keys present on one side
// are copied. Keys present on both sides are combined with the declared
// merge rule; without one, the left value wins.
func MergeTags(left, right map[string]term.Atom, rules map[string]*term.MergeRule) (map[string]term.Atom, error) {
	if len(right) == 0 {
		return left, nil
	}
	if len(left) == 0 {
		return right, nil
	}
	out := make(map[string]term.Atom, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for _, k := range term.SortedTagNames(right) {
		rv := right[k]
		lv, ok := out[k]
		if !ok {
			out[k] = rv
			continue
		}
		rule, ok := rules[k]
		if !ok {
			continue
		}
		merged, err := rule.Apply(lv, rv)
		if err != nil {
			return nil, NewTagMergeError(k, fmt.Sprintf("%s: %v", rule, err))
		}
		out[k] = merged
	}
	return out, nil
}
