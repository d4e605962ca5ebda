package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error is a syntax or conversion error in clause, query or merge text.
// Line and Column are 1-based; Column is 0 when unknown.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

var positionRe = regexp.MustCompile(`(\d+):(\d+):?\s*`)

// fromParticiple turns a parser error into an *Error. Positions reported
// by the parser are relative to the statement, which starts at line first.
func fromParticiple(err error, first int) *Error {
	msg := err.Error()
	m := positionRe.FindStringSubmatchIndex(msg)
	if m == nil {
		return &Error{Line: first, Message: msg}
	}
	line, _ := strconv.Atoi(msg[m[2]:m[3]])
	col, _ := strconv.Atoi(msg[m[4]:m[5]])
	rest := strings.TrimSpace(msg[m[1]:])
	if rest == "" {
		rest = msg
	}
	return &Error{Line: first + line - 1, Column: col, Message: rest}
}

func errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}
