package testutil

import (
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/prolly/internal/ir"
)

// Collect drains an answer stream. It stops at the first error and returns
// the answers seen before it.
func Collect(seq iter.Seq2[ir.Answer, error]) ([]ir.Answer, error) {
	var out []ir.Answer
	for a, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Bindings converts answers to plain maps (variables plus an optional
// "tags" entry), in stream order.
func Bindings(answers []ir.Answer) []map[string]any {
	out := make([]map[string]any, len(answers))
	for i, a := range answers {
		out[i] = ir.ToGo(a.Object()).(map[string]any)
	}
	return out
}

// SortedStrings renders answers with Answer.String and sorts them, for
// order-insensitive comparisons.
func SortedStrings(answers []ir.Answer) []string {
	out := make([]string, len(answers))
	for i, a := range answers {
		out[i] = a.String()
	}
	slices.Sort(out)
	return out
}

// AssertAnswerSet fails the test unless the answers render, as a set, to
// exactly want (see SortedStrings). Reports a go-cmp diff on mismatch.
func AssertAnswerSet(t testing.TB, answers []ir.Answer, want ...string) bool {
	t.Helper()
	want = slices.Clone(want)
	slices.Sort(want)
	if want == nil {
		want = []string{}
	}
	got := SortedStrings(answers)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("answer set mismatch (-want +got):\n%s", diff)
		return false
	}
	return true
}

// FormatAnswers joins answers one per line, in stream order.
func FormatAnswers(answers []ir.Answer) string {
	lines := make([]string, len(answers))
	for i, a := range answers {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}
