package term

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Term is the capability shared by every node of the term model.
//
// Atom, Var, *Compound, *Conjunction and True implement it in this package.
// Special terms (see engine.Special) implement it by wrapping a *Compound.
type Term interface {
	fmt.Stringer

	// Substitute returns a structural copy with every bound Var replaced by
	// its fully resolved value. The receiver is not modified.
	Substitute(b Binding) Term

	// Normalize maps every Var name to the canonical Var of the scope.
	Normalize(s *Scope) Term

	// Vars returns the distinct Vars of the term in first-seen order.
	Vars() []Var
}

// Wrapper is implemented by terms that carry a compound structure but
// override how it is proven. Structural operations (matching, equality,
// projection) see through a Wrapper to its compound.
type Wrapper interface {
	Term
	Unwrap() *Compound
}

// =============================================================================
// Atom
// =============================================================================

// Atom is an indivisible scalar: a string, int64, float64 or bool.
// Atom is comparable; == is value equality.
type Atom struct {
	v any
}

// Str creates a string atom.
func Str(s string) Atom { return Atom{v: s} }

// Int creates an integer atom.
func Int(n int64) Atom { return Atom{v: n} }

// Float creates a floating point atom.
func Float(f float64) Atom { return Atom{v: f} }

// Bool creates a boolean atom.
func Bool(b bool) Atom { return Atom{v: b} }

// AtomOf converts a plain Go value into an Atom.
// Integers of any width become int64 and float32 becomes float64.
func AtomOf(v any) (Atom, bool) {
	switch val := v.(type) {
	case Atom:
		return val, true
	case string:
		return Str(val), true
	case int:
		return Int(int64(val)), true
	case int32:
		return Int(int64(val)), true
	case int64:
		return Int(val), true
	case uint32:
		return Int(int64(val)), true
	case float32:
		return Float(float64(val)), true
	case float64:
		return Float(val), true
	case bool:
		return Bool(val), true
	default:
		return Atom{}, false
	}
}

// Value returns the underlying Go value.
func (a Atom) Value() any { return a.v }

// IsZero reports whether the atom was never assigned a value.
func (a Atom) IsZero() bool { return a.v == nil }

// Number returns the atom as a float64 if it is numeric.
func (a Atom) Number() (float64, bool) {
	switch val := a.v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// IsInt reports whether the atom holds an int64.
func (a Atom) IsInt() bool {
	_, ok := a.v.(int64)
	return ok
}

// String renders the atom in the text syntax. Symbols that would read back
// as something else (variables, keywords, punctuation) are quoted.
func (a Atom) String() string {
	switch val := a.v.(type) {
	case nil:
		return "<nil>"
	case string:
		if isBareSymbol(val) {
			return val
		}
		return strconv.Quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func (a Atom) Substitute(Binding) Term { return a }
func (a Atom) Normalize(*Scope) Term { return a }
func (a Atom) Vars() []Var { return nil }

// formatFloat keeps a decimal point on integral values so that 1.0 does not
// read back as the integer atom 1.
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var reservedWords = map[string]bool{"if": true, "and": true, "tag": true, "default": true, "merge": true}

func isBareSymbol(s string) bool {
	if s == "" || reservedWords[s] {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLower(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// =============================================================================
// Var
// =============================================================================

// Var is a logic variable. Two Vars are the same variable iff they have the
// same ID. ID 0 marks an unscoped variable produced by a front-end.
type Var struct {
	ID   uint64
	Name string
}

// NewVar creates an unscoped variable. It acquires identity when the
// enclosing clause or query is normalized.
func NewVar(name string) Var { return Var{Name: name} }

// Anonymous is the name of the variable that is fresh at every occurrence.
const Anonymous = "_"

// Scoped reports whether the variable has been normalized.
func (v Var) Scoped() bool { return v.ID != 0 }

func (v Var) String() string {
	if v.Name == "" {
		return fmt.Sprintf("_G%d", v.ID)
	}
	return v.Name
}

// Substitute resolves the variable through the binding, following chains.
func (v Var) Substitute(b Binding) Term {
	t := Walk(v, b)
	if tv, ok := t.(Var); ok {
		return tv
	}
	return t.Substitute(b)
}

func (v Var) Normalize(s *Scope) Term { return s.Lookup(v.Name) }
func (v Var) Vars() []Var { return []Var{v} }

// =============================================================================
// Compound
// =============================================================================

// Compound is a fixed-arity tuple of terms with optional tag metadata.
// Args[0] is conventionally the functor.
type Compound struct {
	Args []Term
	Tags map[string]Atom
}

// NewCompound creates a compound from its arguments.
func NewCompound(args ...Term) *Compound {
	return &Compound{Args: args}
}

// Tuple builds a compound from plain Go values: strings whose first rune is
// upper case or '_' become unscoped Vars, other supported values become
// Atoms, and Terms are used as-is. It panics on unsupported values and is
// meant for tests and programmatic construction.
func Tuple(vals ...any) *Compound {
	args := make([]Term, len(vals))
	for i, val := range vals {
		switch x := val.(type) {
		case Term:
			args[i] = x
		case string:
			if IsVarName(x) {
				args[i] = NewVar(x)
			} else {
				args[i] = Str(x)
			}
		default:
			a, ok := AtomOf(val)
			if !ok {
				panic(fmt.Sprintf("term.Tuple: unsupported value %T", val))
			}
			args[i] = a
		}
	}
	return NewCompound(args...)
}

// IsVarName reports whether a symbol names a variable in the text syntax.
func IsVarName(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r == '_' || unicode.IsUpper(r)
}

// WithTags returns a copy of c carrying the given tags.
func (c *Compound) WithTags(tags map[string]Atom) *Compound {
	cp := *c
	cp.Tags = tags
	return &cp
}

// Arity returns the number of arguments, functor included.
func (c *Compound) Arity() int { return len(c.Args) }

// Functor returns the first argument when it is an atom.
func (c *Compound) Functor() (Atom, bool) {
	if len(c.Args) == 0 {
		return Atom{}, false
	}
	a, ok := c.Args[0].(Atom)
	return a, ok
}

func (c *Compound) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	if len(c.Tags) > 0 {
		sb.WriteString(" {")
		for i, k := range SortedTagNames(c.Tags) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(c.Tags[k].String())
		}
		sb.WriteByte('}')
	}
	return sb.String()
}

func (c *Compound) Substitute(b Binding) Term {
	if len(b) == 0 {
		return c
	}
	args := make([]Term, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.Substitute(b)
	}
	return &Compound{Args: args, Tags: c.Tags}
}

func (c *Compound) Normalize(s *Scope) Term {
	args := make([]Term, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.Normalize(s)
	}
	return &Compound{Args: args, Tags: c.Tags}
}

func (c *Compound) Vars() []Var {
	return collectVars(c.Args...)
}

// =============================================================================
// Conjunction and True
// =============================================================================

// Conjunction is an ordered sequence of goals that must all be provable,
// left to right.
type Conjunction struct {
	Goals []Term
}

// And creates a conjunction. A single goal is returned unwrapped.
func And(goals ...Term) Term {
	if len(goals) == 1 {
		return goals[0]
	}
	return &Conjunction{Goals: goals}
}

func (c *Conjunction) String() string {
	parts := make([]string, len(c.Goals))
	for i, g := range c.Goals {
		parts[i] = g.String()
	}
	return strings.Join(parts, " and ")
}

func (c *Conjunction) Substitute(b Binding) Term {
	goals := make([]Term, len(c.Goals))
	for i, g := range c.Goals {
		goals[i] = g.Substitute(b)
	}
	return &Conjunction{Goals: goals}
}

func (c *Conjunction) Normalize(s *Scope) Term {
	goals := make([]Term, len(c.Goals))
	for i, g := range c.Goals {
		goals[i] = g.Normalize(s)
	}
	return &Conjunction{Goals: goals}
}

func (c *Conjunction) Vars() []Var {
	return collectVars(c.Goals...)
}

type trueTerm struct{}

// True is the body of an unconditional fact.
var True Term = trueTerm{}

func (trueTerm) String() string { return "true" }
func (trueTerm) Substitute(Binding) Term { return True }
func (trueTerm) Normalize(*Scope) Term { return True }
func (trueTerm) Vars() []Var { return nil }

// =============================================================================
// Structural helpers
// =============================================================================

// Unwrap returns the compound structure of t, seeing through Wrappers.
func Unwrap(t Term) (*Compound, bool) {
	switch x := t.(type) {
	case *Compound:
		return x, true
	case Wrapper:
		return x.Unwrap(), true
	default:
		return nil, false
	}
}

// Equal reports structural equality. Tags are metadata and are ignored.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	case Var:
		y, ok := b.(Var)
		if !ok {
			return false
		}
		if x.ID == 0 && y.ID == 0 {
			return x.Name == y.Name
		}
		return x.ID == y.ID
	case *Conjunction:
		y, ok := b.(*Conjunction)
		if !ok || len(x.Goals) != len(y.Goals) {
			return false
		}
		for i := range x.Goals {
			if !Equal(x.Goals[i], y.Goals[i]) {
				return false
			}
		}
		return true
	case trueTerm:
		_, ok := b.(trueTerm)
		return ok
	}
	cx, ok := Unwrap(a)
	if !ok {
		return false
	}
	cy, ok := Unwrap(b)
	if !ok || len(cx.Args) != len(cy.Args) {
		return false
	}
	for i := range cx.Args {
		if !Equal(cx.Args[i], cy.Args[i]) {
			return false
		}
	}
	return true
}

// IsGround reports whether t contains no variables.
func IsGround(t Term) bool {
	return len(t.Vars()) == 0
}

func collectVars(terms ...Term) []Var {
	var out []Var
	seen := make(map[Var]bool)
	for _, t := range terms {
		for _, v := range t.Vars() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
