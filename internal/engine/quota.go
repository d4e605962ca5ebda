package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts proof steps for one query and enforces a maximum.
//
// A step is one attempt to apply a rule to a goal. The quota catches
// searches that never finish, whether through deep recursion or a wide
// fan-out, complementing the variant-goal loop check which only catches
// repeated goals.
//
// A limit of zero or less disables enforcement while still counting.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
//
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(queryID string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			QueryID: queryID,
			Steps:   q.current,
			Limit:   q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError ends a query that exceeded its max steps quota.
//
// Unlike depth pruning (which drops one branch), the quota terminates the
// whole answer stream.
type StepsExceededError struct {
	QueryID string
	Steps   int
	Limit   int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	if e.QueryID == "" {
		return fmt.Sprintf("query exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
	}
	return fmt.Sprintf("query %s exceeded max steps quota: %d steps > %d limit",
		e.QueryID, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
