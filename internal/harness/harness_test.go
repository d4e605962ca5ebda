package harness

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/brain"
	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/parse"
	"github.com/roach88/prolly/internal/testutil"
)

func intp(n int) *int { return &n }

func runFile(t *testing.T, path string) *Result {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}

func TestRun_TestdataScenariosPass(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			result := runFile(t, f)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_RecordsAnswersAndQueryIDs(t *testing.T) {
	result := runFile(t, "testdata/scenarios/family.yaml")
	require.Len(t, result.Queries, 7)

	parent := result.Queries[1]
	assert.Equal(t, "(parent, X, alicia)", parent.Query)
	assert.Equal(t, "family-0002", parent.QueryID)
	testutil.AssertAnswerSet(t, parent.Answers, "X = mary", "X = joseph")

	assert.Empty(t, result.Queries[4].Answers)
	assert.NotNil(t, result.Queries[4].Answers, "no answers is an empty list")
}

func TestRun_QueryIDPrefix(t *testing.T) {
	s := &Scenario{
		Name:          "ids",
		Description:   "fixed prefix",
		Clauses:       []string{"(a)"},
		QueryIDPrefix: "run",
		Queries:       []QueryCase{{Query: "(a)", Count: intp(1)}, {Query: "(b)", Count: intp(0)}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "run-0001", result.Queries[0].QueryID)
	assert.Equal(t, "run-0002", result.Queries[1].QueryID)
}

func TestRun_FailedExpectations(t *testing.T) {
	s := &Scenario{
		Name:        "wrong",
		Description: "every expectation is off",
		Knowledge:   []string{"testdata/kb/family.pl"},
		Queries: []QueryCase{
			{Query: "(parent, X, alicia)", Expect: []map[string]any{{"X": "mary"}}},
			{Query: "(mother, X, mike)", Count: intp(2)},
			{Query: "(mother, X, mike)", Error: "QUOTA_EXCEEDED"},
		},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "queries[0] (parent, X, alicia): answers")
	assert.Contains(t, result.Errors[0], "joseph")
	assert.Contains(t, result.Errors[1], "Expected: 2 answers")
	assert.Contains(t, result.Errors[2], "Expected: error QUOTA_EXCEEDED")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := &Scenario{
		Name:        "quota",
		Description: "quota hit without expecting it",
		Clauses:     []string{"(loop, X) if (loop, X)"},
		Options:     Options{MaxSteps: 20},
		Queries:     []QueryCase{{Query: "(loop, X)", Count: intp(0)}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Actual: error QUOTA_EXCEEDED")
	assert.Equal(t, string(engine.ErrCodeQuotaExceeded), result.Queries[0].ErrorCode)
}

func TestRun_MaxDepthPrunes(t *testing.T) {
	s := &Scenario{
		Name:        "depth",
		Description: "depth limit prunes the recursive branch",
		Clauses: []string{`
(nat, z)
(nat, (s, N)) if (nat, N)
`},
		Options: Options{MaxDepth: 3},
		Queries: []QueryCase{{Query: "(nat, X)", Expect: []map[string]any{{"X": "z"}}, Match: MatchSubset}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Queries[0].ErrorCode, "depth pruning is not an error")
}

func TestRun_ExpectedParseError(t *testing.T) {
	s := &Scenario{
		Name:        "parse",
		Description: "query text that does not parse",
		Clauses:     []string{"(a)"},
		Queries:     []QueryCase{{Query: "(a", Error: ErrCodeParse}},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Queries[0].QueryID, "the database never saw the query")

	s.Queries[0].Error = ""
	s.Queries[0].Count = intp(0)
	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queries[0]")
}

func TestRun_KnowledgeErrors(t *testing.T) {
	tests := []struct {
		name    string
		clauses []string
		want    string
	}{
		{"syntax", []string{"(a)", "(b"}, "clauses[1]"},
		{"malformed", []string{"(a) if (not)"}, "failed to load knowledge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{
				Name:        tt.name,
				Description: "broken knowledge",
				Clauses:     tt.clauses,
				Queries:     []QueryCase{{Query: "(a)", Count: intp(1)}},
			}
			_, err := Run(context.Background(), s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{
		Name:        "cancel",
		Description: "cancelled context",
		Clauses:     []string{"(a)"},
		Queries:     []QueryCase{{Query: "(a)", Error: ErrCodeCanceled}},
	}
	result, err := Run(ctx, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestErrorCode(t *testing.T) {
	_, parseErr := parse.ParseQuery("(a")
	require.Error(t, parseErr)

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&brain.ClauseError{Code: brain.ErrCodeMalformedClause}, "MALFORMED_CLAUSE"},
		{fmt.Errorf("wrapped: %w", &engine.StepsExceededError{Steps: 2, Limit: 1}), "QUOTA_EXCEEDED"},
		{engine.NewTagMergeError("trueness", "division by zero"), "TAG_MERGE"},
		{parseErr, ErrCodeParse},
		{context.DeadlineExceeded, ErrCodeTimeout},
		{fmt.Errorf("q: %w", context.Canceled), ErrCodeCanceled},
		{errors.New("other"), ErrCodeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), "%v", tt.err)
	}
}
