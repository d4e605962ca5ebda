package term

import (
	"slices"
	"strings"
)

// Binding is a substitution from variables to terms.
// A Binding produced by a single successful proof step is internally
// consistent: following any chain of Var-to-Var entries ends at one value.
type Binding map[Var]Term

// Clone returns a shallow copy of the binding.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Resolve returns the fully substituted value of v, or v itself if unbound.
func (b Binding) Resolve(v Var) Term {
	return v.Substitute(b)
}

// Restrict returns a binding over vars only, each resolved through b.
// Vars that resolve to themselves are omitted.
func (b Binding) Restrict(vars []Var) Binding {
	out := make(Binding, len(vars))
	for _, v := range vars {
		val := b.Resolve(v)
		if tv, ok := val.(Var); ok && tv == v {
			continue
		}
		out[v] = val
	}
	return out
}

// SortedVars returns the bound variables ordered by name, then ID.
func (b Binding) SortedVars() []Var {
	vars := make([]Var, 0, len(b))
	for v := range b {
		vars = append(vars, v)
	}
	slices.SortFunc(vars, func(x, y Var) int {
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})
	return vars
}

func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range b.SortedVars() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
		sb.WriteString(": ")
		sb.WriteString(b[v].String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// Walk follows Var-to-Var entries of b starting at t and returns the first
// term that is not a bound Var.
func Walk(t Term, b Binding) Term {
	for hops := 0; hops <= len(b); hops++ {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		next, ok := b[v]
		if !ok {
			return v
		}
		if nv, isVar := next.(Var); isVar && nv == v {
			return v
		}
		t = next
	}
	// A chain longer than the binding is a cycle; stop where we are.
	return t
}

// Occurs reports whether v appears in t after resolving t through b.
func Occurs(v Var, t Term, b Binding) bool {
	t = Walk(t, b)
	switch x := t.(type) {
	case Var:
		return x == v
	case Atom:
		return false
	}
	c, ok := Unwrap(t)
	if !ok {
		return false
	}
	for _, arg := range c.Args {
		if Occurs(v, arg, b) {
			return true
		}
	}
	return false
}

// SortedTagNames returns tag keys in lexical order.
func SortedTagNames(tags map[string]Atom) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
