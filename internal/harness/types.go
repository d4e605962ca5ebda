package harness

import "github.com/roach88/prolly/internal/ir"

// QueryResult records what one query produced.
type QueryResult struct {
	// Query is the goal text as written in the scenario.
	Query string `json:"query"`

	// QueryID is the deterministic ID the database assigned.
	QueryID string `json:"query_id,omitempty"`

	// Answers holds the answers in stream order, up to the first error
	// or the query's limit.
	Answers []ir.Answer `json:"answers"`

	// ErrorCode and Error describe how the stream failed, if it did.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every query met its expectations.
	Pass bool `json:"pass"`

	// Queries holds one entry per scenario query, in order.
	// Used for assertions and golden comparison.
	Queries []QueryResult `json:"queries"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddQuery appends a query outcome.
func (r *Result) AddQuery(q QueryResult) {
	r.Queries = append(r.Queries, q)
}
