package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/prolly/internal/ir"
)

// Assertion types, reported in AssertionError.Type.
const (
	AssertAnswers = "answers"
	AssertCount   = "count"
	AssertError   = "error"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Index    int    // query index within the scenario
	Query    string // query text
	Type     string // assertion type for categorization
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
	Diff     string // go-cmp diff (-want +got), when available
	Answers  []ir.Answer
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: queries[%d] %s: %s\n", e.Index, e.Query, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Diff != "" {
		fmt.Fprintf(&buf, "\nDiff (-want +got):\n%s", e.Diff)
	}

	if len(e.Answers) > 0 {
		fmt.Fprintf(&buf, "\nAnswers:\n")
		for i, a := range e.Answers {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, a)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every query result against its case.
// Returns a slice of error messages for failed expectations.
func EvaluateAssertions(result *Result, cases []QueryCase) []string {
	var errs []string

	for i, qc := range cases {
		if i >= len(result.Queries) {
			errs = append(errs, fmt.Sprintf("queries[%d]: no result recorded", i))
			continue
		}
		qr := result.Queries[i]

		for _, check := range []func(int, QueryCase, QueryResult) error{
			assertError,
			assertCount,
			assertAnswers,
		} {
			if err := check(i, qc, qr); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	return errs
}

// assertError checks the stream ended with the expected error code, or
// with no error when none is expected.
func assertError(i int, qc QueryCase, qr QueryResult) error {
	if qc.Error == qr.ErrorCode {
		return nil
	}

	expected := "no error"
	if qc.Error != "" {
		expected = "error " + qc.Error
	}
	actual := "no error"
	if qr.ErrorCode != "" {
		actual = fmt.Sprintf("error %s (%s)", qr.ErrorCode, qr.Error)
	}
	return &AssertionError{
		Index:    i,
		Query:    qc.Query,
		Type:     AssertError,
		Expected: expected,
		Actual:   actual,
		Answers:  qr.Answers,
	}
}

// assertCount checks the exact number of answers.
func assertCount(i int, qc QueryCase, qr QueryResult) error {
	if qc.Count == nil || *qc.Count == len(qr.Answers) {
		return nil
	}
	return &AssertionError{
		Index:    i,
		Query:    qc.Query,
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d answers", *qc.Count),
		Actual:   fmt.Sprintf("%d answers", len(qr.Answers)),
		Answers:  qr.Answers,
	}
}

// assertAnswers compares answers against Expect using the case's match
// mode. Values compare as canonical JSON, so 1 and 1.0 differ.
func assertAnswers(i int, qc QueryCase, qr QueryResult) error {
	if qc.Expect == nil {
		return nil
	}

	want, err := canonicalExpected(qc.Expect)
	if err != nil {
		return fmt.Errorf("queries[%d]: %w", i, err)
	}
	got, err := canonicalAnswers(qr.Answers)
	if err != nil {
		return fmt.Errorf("queries[%d]: %w", i, err)
	}

	mode := qc.Match
	if mode == "" {
		mode = MatchSet
	}

	var ok bool
	switch mode {
	case MatchOrdered:
		ok = slices.Equal(want, got)
	case MatchSubset:
		var missing []string
		ok, missing = containsAll(got, want)
		if !ok {
			return &AssertionError{
				Index:    i,
				Query:    qc.Query,
				Type:     AssertAnswers,
				Expected: fmt.Sprintf("answers include %s", strings.Join(want, ", ")),
				Actual:   fmt.Sprintf("missing %s", strings.Join(missing, ", ")),
				Answers:  qr.Answers,
			}
		}
		return nil
	default:
		want, got = sorted(want), sorted(got)
		ok = slices.Equal(want, got)
	}

	if ok {
		return nil
	}
	return &AssertionError{
		Index:    i,
		Query:    qc.Query,
		Type:     AssertAnswers,
		Expected: fmt.Sprintf("%d answers (%s)", len(want), mode),
		Actual:   fmt.Sprintf("%d answers", len(got)),
		Diff:     cmp.Diff(want, got),
	}
}

// canonicalExpected renders YAML expectations as canonical JSON.
func canonicalExpected(expect []map[string]any) ([]string, error) {
	out := make([]string, len(expect))
	for j, m := range expect {
		v, err := ir.FromGo(m)
		if err != nil {
			return nil, fmt.Errorf("expect[%d]: %w", j, err)
		}
		obj, ok := v.(ir.Object)
		if !ok {
			// {$var: X} alone decodes as an unbound value, not an answer
			return nil, fmt.Errorf("expect[%d]: not an answer object", j)
		}
		b, err := ir.MarshalCanonical(obj)
		if err != nil {
			return nil, fmt.Errorf("expect[%d]: %w", j, err)
		}
		out[j] = string(b)
	}
	return out, nil
}

// canonicalAnswers renders answers as canonical JSON in stream order.
func canonicalAnswers(answers []ir.Answer) ([]string, error) {
	out := make([]string, len(answers))
	for j, a := range answers {
		b, err := ir.MarshalCanonical(a.Object())
		if err != nil {
			return nil, fmt.Errorf("answer[%d]: %w", j, err)
		}
		out[j] = string(b)
	}
	return out, nil
}

// containsAll reports whether got holds every element of want, counting
// duplicates, and lists the ones it lacks.
func containsAll(got, want []string) (bool, []string) {
	counts := make(map[string]int, len(got))
	for _, g := range got {
		counts[g]++
	}
	var missing []string
	for _, w := range want {
		if counts[w] == 0 {
			missing = append(missing, w)
			continue
		}
		counts[w]--
	}
	return len(missing) == 0, missing
}

func sorted(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return s
}
