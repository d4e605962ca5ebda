package engine

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/term"
)

func v(id uint64, name string) term.Var { return term.Var{ID: id, Name: name} }

func collect(a, b term.Term) []term.Binding {
	return slices.Collect(Match(a, b))
}

// =============================================================================
// Atoms and variables
// =============================================================================

func TestMatch_Atoms(t *testing.T) {
	tests := []struct {
		name  string
		a, b  term.Term
		count int
	}{
		{"equal strings", term.Str("mary"), term.Str("mary"), 1},
		{"different strings", term.Str("mary"), term.Str("rita"), 0},
		{"equal ints", term.Int(1), term.Int(1), 1},
		{"int vs float", term.Int(1), term.Float(1), 0},
		{"string vs int", term.Str("1"), term.Int(1), 0},
		{"atom vs compound", term.Str("mary"), term.Tuple("mary"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(tt.a, tt.b)
			require.Len(t, got, tt.count)
			for _, b := range got {
				assert.Empty(t, b)
			}
		})
	}
}

func TestMatch_AtomVar(t *testing.T) {
	x := v(1, "X")

	got := collect(term.Str("mary"), x)
	require.Len(t, got, 1)
	assert.Equal(t, term.Binding{x: term.Str("mary")}, got[0])
}

func TestMatch_VarAnything(t *testing.T) {
	x, y := v(1, "X"), v(2, "Y")
	c := term.NewCompound(term.Str("pair"), term.Int(1))

	assert.Equal(t, []term.Binding{{x: term.Str("a")}}, collect(x, term.Str("a")))
	assert.Equal(t, []term.Binding{{x: y}}, collect(x, y))
	assert.Equal(t, []term.Binding{{x: c}}, collect(x, c))
	assert.Equal(t, []term.Binding{{}}, collect(x, x), "a var against itself binds nothing")
}

func TestMatch_CompoundVar(t *testing.T) {
	x := v(1, "X")
	c := term.NewCompound(term.Str("pair"), term.Int(1))

	assert.Equal(t, []term.Binding{{x: c}}, collect(c, x))
}

// =============================================================================
// Compounds
// =============================================================================

func TestMatch_CompoundSameArity(t *testing.T) {
	x := v(1, "X")
	fact := term.NewCompound(term.Str("mother"), term.Str("mary"), term.Str("alicia"))
	goal := term.NewCompound(term.Str("mother"), x, term.Str("alicia"))

	got := collect(fact, goal)
	require.Len(t, got, 1)
	assert.Equal(t, term.Binding{x: term.Str("mary")}, got[0])
}

func TestMatch_CompoundArityMismatch(t *testing.T) {
	a := term.NewCompound(term.Str("mother"), term.Str("mary"))
	b := term.NewCompound(term.Str("mother"), term.Str("mary"), term.Str("alicia"))

	assert.Empty(t, collect(a, b))
}

func TestMatch_CompoundGroundMismatch(t *testing.T) {
	a := term.NewCompound(term.Str("mother"), term.Str("mary"), term.Str("gonzo"))
	b := term.NewCompound(term.Str("mother"), term.Str("mary"), term.Str("alicia"))

	assert.Empty(t, collect(a, b))
}

func TestMatch_RepeatedVarConflicts(t *testing.T) {
	x := v(1, "X")
	pattern := term.NewCompound(term.Str("same"), x, x)

	assert.Empty(t, collect(pattern, term.NewCompound(term.Str("same"), term.Str("a"), term.Str("b"))))

	got := collect(pattern, term.NewCompound(term.Str("same"), term.Str("a"), term.Str("a")))
	require.Len(t, got, 1)
	assert.Equal(t, term.Str("a"), got[0].Resolve(x))
}

func TestMatch_VarFunctor(t *testing.T) {
	x, y := v(1, "X"), v(2, "Y")
	fact := term.NewCompound(term.Str("mother"), term.Str("mary"), term.Str("alicia"))
	goal := term.NewCompound(x, y, term.Str("alicia"))

	got := collect(fact, goal)
	require.Len(t, got, 1)
	assert.Equal(t, term.Str("mother"), got[0].Resolve(x))
	assert.Equal(t, term.Str("mary"), got[0].Resolve(y))
}

func TestMatch_VarsOnBothSides(t *testing.T) {
	x, y, z := v(1, "X"), v(2, "Y"), v(3, "Z")
	// (f, X, b) against (f, a, Y) and (g, X, Z) against (g, Z, c)
	got := collect(
		term.NewCompound(term.Str("f"), x, term.Str("b")),
		term.NewCompound(term.Str("f"), term.Str("a"), y),
	)
	require.Len(t, got, 1)
	assert.Equal(t, term.Str("a"), got[0].Resolve(x))
	assert.Equal(t, term.Str("b"), got[0].Resolve(y))

	got = collect(
		term.NewCompound(term.Str("g"), x, z),
		term.NewCompound(term.Str("g"), z, term.Str("c")),
	)
	require.Len(t, got, 1)
	assert.Equal(t, term.Str("c"), got[0].Resolve(x))
	assert.Equal(t, term.Str("c"), got[0].Resolve(z))
}

func TestMatch_Nested(t *testing.T) {
	x := v(1, "X")
	a := term.NewCompound(term.Str("wrap"), term.NewCompound(term.Str("pair"), x, term.Int(2)))
	b := term.NewCompound(term.Str("wrap"), term.NewCompound(term.Str("pair"), term.Int(1), term.Int(2)))

	got := collect(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, term.Int(1), got[0].Resolve(x))
}

func TestMatch_OccursCheck(t *testing.T) {
	x := v(1, "X")
	// (f, X, X) against (f, Y, (g, Y)) would need Y = (g, Y)
	y := v(2, "Y")
	a := term.NewCompound(term.Str("f"), x, x)
	b := term.NewCompound(term.Str("f"), y, term.NewCompound(term.Str("g"), y))

	assert.Empty(t, collect(a, b))
}

func TestMatch_SeesThroughSpecial(t *testing.T) {
	x := v(1, "X")
	not, err := NewNot(term.NewCompound(term.Str("not"), term.NewCompound(term.Str("bad"), x)))
	require.NoError(t, err)

	plain := term.NewCompound(term.Str("not"), term.NewCompound(term.Str("bad"), term.Str("cats")))
	got := collect(not, plain)
	require.Len(t, got, 1)
	assert.Equal(t, term.Str("cats"), got[0].Resolve(x))
}

func TestMatch_Lazy(t *testing.T) {
	a := term.NewCompound(term.Str("f"), term.Str("a"))
	pulled := 0
	for range Match(a, a) {
		pulled++
		break
	}
	assert.Equal(t, 1, pulled)
	assert.True(t, Unifies(a, a))
	assert.False(t, Unifies(a, term.Str("a")))
}
