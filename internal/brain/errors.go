package brain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors reported by a Brain.
type ErrorCode string

const (
	// ErrCodeMalformedClause indicates a clause or goal the database cannot
	// accept. The database is unchanged.
	ErrCodeMalformedClause ErrorCode = "MALFORMED_CLAUSE"
)

// ClauseError reports a rejected clause or query goal.
type ClauseError struct {
	Code    ErrorCode
	Clause  string // text form of the offending clause, if any
	Message string
	Err     error // underlying cause, e.g. a special-term factory error
}

func (e *ClauseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Clause != "" {
		msg += fmt.Sprintf(" in %s", e.Clause)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClauseError) Unwrap() error {
	return e.Err
}

// IsMalformedClause returns true if err is a MalformedClause error.
// Uses errors.As to handle wrapped errors.
func IsMalformedClause(err error) bool {
	var ce *ClauseError
	return errors.As(err, &ce) && ce.Code == ErrCodeMalformedClause
}

func malformed(clause fmt.Stringer, cause error, format string, args ...any) *ClauseError {
	e := &ClauseError{
		Code:    ErrCodeMalformedClause,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
	if clause != nil {
		e.Clause = clause.String()
	}
	return e
}
