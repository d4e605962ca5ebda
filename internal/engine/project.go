package engine

import (
	"fmt"

	"github.com/roach88/prolly/internal/ir"
	"github.com/roach88/prolly/internal/term"
)

// Project converts a term into plain answer values: atoms become scalars,
// compounds become arrays of their arguments and unbound variables become
// ir.Unbound carrying the variable's name.
func Project(t term.Term) ir.Value {
	return ProjectWith(t, func(v term.Var) ir.Value {
		return ir.Unbound{Name: v.String()}
	})
}

// ProjectTags converts tag metadata into an ir.Object.
func ProjectTags(tags map[string]term.Atom) ir.Object {
	if len(tags) == 0 {
		return nil
	}
	out := make(ir.Object, len(tags))
	for k, v := range tags {
		out[k] = AtomValue(v)
	}
	return out
}

// AtomValue converts a single atom.
func AtomValue(a term.Atom) ir.Value {
	switch v := a.Value().(type) {
	case string:
		return ir.String(v)
	case int64:
		return ir.Int(v)
	case float64:
		return ir.Float(v)
	case bool:
		return ir.Bool(v)
	default:
		return ir.String(fmt.Sprint(v))
	}
}

// ProjectWith is Project with a caller-chosen rendering of unbound
// variables.
func ProjectWith(t term.Term, varFn func(term.Var) ir.Value) ir.Value {
	switch x := t.(type) {
	case term.Atom:
		return AtomValue(x)
	case term.Var:
		return varFn(x)
	case *term.Conjunction:
		goals := make(ir.Array, len(x.Goals))
		for i, g := range x.Goals {
			goals[i] = ProjectWith(g, varFn)
		}
		return ir.Object{"and": goals}
	}
	if c, ok := term.Unwrap(t); ok {
		out := make(ir.Array, len(c.Args))
		for i, arg := range c.Args {
			out[i] = ProjectWith(arg, varFn)
		}
		return out
	}
	return ir.Bool(true)
}
