package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected during resolution.
//
// Runtime errors include:
//   - Quota exceeded: a query exceeds its max steps limit
//   - Tag merge: a declared merge rule cannot combine two tag values
//   - Special term: a registered factory rejects a term
//
// Ordinary non-matches and binding conflicts are never errors.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// QueryID identifies the affected query, when known.
	QueryID string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates the query exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeTagMerge indicates a merge rule failed on the given values.
	ErrCodeTagMerge RuntimeErrorCode = "TAG_MERGE"

	// ErrCodeSpecialTerm indicates a special-term factory rejected a term.
	ErrCodeSpecialTerm RuntimeErrorCode = "SPECIAL_TERM"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.QueryID != "" {
		return fmt.Sprintf("%s: %s (query=%s)", e.Code, e.Message, e.QueryID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsTagMergeError returns true if a tag merge rule failed.
func IsTagMergeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeTagMerge
}

// IsSpecialTermError returns true if a special-term factory rejected a term.
func IsSpecialTermError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeSpecialTerm
}

// NewTagMergeError creates a RuntimeError for a failed tag merge.
func NewTagMergeError(tag, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTagMerge,
		Message: fmt.Sprintf("cannot merge tag %q: %s", tag, message),
		Details: map[string]string{"tag": tag},
	}
}

// NewSpecialTermError creates a RuntimeError for a rejected special term.
func NewSpecialTermError(functor, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeSpecialTerm,
		Message: fmt.Sprintf("%s: %s", functor, message),
		Details: map[string]string{"functor": functor},
	}
}
