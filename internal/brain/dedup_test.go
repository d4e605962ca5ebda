package brain

import (
	"errors"
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/ir"
)

func stream(answers ...ir.Answer) iter.Seq2[ir.Answer, error] {
	return func(yield func(ir.Answer, error) bool) {
		for _, a := range answers {
			if !yield(a, nil) {
				return
			}
		}
	}
}

func ans(pairs ...ir.Pair) ir.Answer {
	return ir.Answer{Vars: ir.NewObject(pairs...)}
}

func TestDedup_PreservesFirstSeenOrder(t *testing.T) {
	in := stream(
		ans(ir.O("X", ir.String("alicia"))),
		ans(ir.O("X", ir.String("mike"))),
		ans(ir.O("X", ir.String("alicia"))),
		ans(ir.O("X", ir.String("mike"))),
		ans(ir.O("X", ir.String("joseph"))),
	)

	var got []string
	for a, err := range Dedup(in) {
		require.NoError(t, err)
		got = append(got, a.String())
	}
	assert.Equal(t, []string{"X = alicia", "X = mike", "X = joseph"}, got)
}

func TestDedup_TagsDistinguish(t *testing.T) {
	d := NewDeduplicator()

	a := ir.Answer{Vars: ir.Object{"X": ir.String("bob")}, Tags: ir.Object{"trueness": ir.Float(0.5)}}
	b := ir.Answer{Vars: ir.Object{"X": ir.String("bob")}, Tags: ir.Object{"trueness": ir.Float(0.25)}}
	c := ir.Answer{Vars: ir.Object{"X": ir.String("bob")}, Tags: ir.Object{"trueness": ir.Float(0.5)}}

	for _, tc := range []struct {
		answer ir.Answer
		fresh  bool
	}{{a, true}, {b, true}, {c, false}} {
		fresh, err := d.Add(tc.answer)
		require.NoError(t, err)
		assert.Equal(t, tc.fresh, fresh)
	}
	assert.Equal(t, 2, d.Len())
}

func TestDedup_NestedValues(t *testing.T) {
	d := NewDeduplicator()

	first, err := d.Add(ans(ir.O("P", ir.Array{ir.String("xy"), ir.Int(1)})))
	require.NoError(t, err)
	again, err := d.Add(ans(ir.O("P", ir.Array{ir.String("xy"), ir.Int(1)})))
	require.NoError(t, err)
	asFloat, err := d.Add(ans(ir.O("P", ir.Array{ir.String("xy"), ir.Float(1)})))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, asFloat, "1 and 1.0 are different answers")
}

func TestDedup_Errors(t *testing.T) {
	boom := errors.New("boom")
	in := func(yield func(ir.Answer, error) bool) {
		if !yield(ans(ir.O("X", ir.Int(1))), nil) {
			return
		}
		yield(ir.Answer{}, boom)
	}

	var errs []error
	for _, err := range Dedup(in) {
		errs = append(errs, err)
	}
	assert.Equal(t, []error{nil, boom}, errs)

	bad := stream(ir.Answer{Tags: ir.Object{"t": ir.Float(math.Inf(1))}})
	errs = nil
	for _, err := range Dedup(bad) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestDedup_StopsPulling(t *testing.T) {
	pulled := 0
	in := func(yield func(ir.Answer, error) bool) {
		for i := range 100 {
			pulled++
			if !yield(ans(ir.O("N", ir.Int(int64(i)))), nil) {
				return
			}
		}
	}

	got := slices.Collect(func(yield func(ir.Answer) bool) {
		for a := range Dedup(in) {
			if !yield(a) {
				return
			}
		}
	})
	assert.Len(t, got, 100)

	pulled = 0
	for range Dedup(in) {
		break
	}
	assert.Equal(t, 1, pulled)
}
