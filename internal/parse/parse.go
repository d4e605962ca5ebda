package parse

import (
	"strings"

	"github.com/roach88/prolly/internal/term"
)

// ParseProgram parses a knowledge file into clauses in source order.
//
// A clause starts at the beginning of a line; indented lines continue the
// clause above. Several clauses may share a line when separated by '.'.
// Blank lines and '#' comments are ignored.
func ParseProgram(src string) ([]term.Clause, error) {
	var out []term.Clause
	for _, st := range statements(src) {
		var ast program
		if err := programParser.ParseString(st.text, &ast); err != nil {
			return nil, fromParticiple(err, st.line)
		}
		for _, c := range ast.Clauses {
			if c.Tag == nil && c.Rule == nil {
				return nil, errorf(st.line, "expected a clause")
			}
			cl, err := convertClause(c, st.line)
			if err != nil {
				return nil, err
			}
			out = append(out, cl)
		}
	}
	return out, nil
}

// ParseClause parses exactly one clause: a fact, a rule or a tag
// declaration.
func ParseClause(src string) (term.Clause, error) {
	clauses, err := ParseProgram(src)
	if err != nil {
		return nil, err
	}
	switch len(clauses) {
	case 0:
		return nil, errorf(1, "expected a clause, got none")
	case 1:
		return clauses[0], nil
	default:
		return nil, errorf(1, "expected one clause, got %d", len(clauses))
	}
}

// ParseQuery parses a goal: one tuple, or several joined by "and".
func ParseQuery(src string) (term.Term, error) {
	var ast query
	if err := queryParser.ParseString(src, &ast); err != nil {
		return nil, fromParticiple(err, 1)
	}
	if ast.Body == nil {
		return nil, errorf(1, "expected a goal")
	}
	return convertBody(ast.Body, 1)
}

// ParseMergeRule parses the right-hand side of a merge declaration,
// e.g. "a, b => a * b".
func ParseMergeRule(src string) (*term.MergeRule, error) {
	var ast mergeDef
	if err := mergeParser.ParseString(src, &ast); err != nil {
		return nil, fromParticiple(err, 1)
	}
	if ast.Body == nil {
		return nil, errorf(1, "expected a merge expression")
	}
	return convertMerge(&ast, 1)
}

type statement struct {
	text string
	line int
}

func statements(src string) []statement {
	var (
		out   []statement
		lines []string
		first int
	)
	flush := func() {
		if len(lines) > 0 {
			out = append(out, statement{text: strings.Join(lines, "\n"), line: first})
		}
		lines = nil
	}
	for i, ln := range strings.Split(src, "\n") {
		ln = strings.TrimRight(ln, "\r")
		trimmed := strings.TrimSpace(ln)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			if len(lines) > 0 {
				lines = append(lines, "")
			}
		case len(lines) > 0 && (ln[0] == ' ' || ln[0] == '\t'):
			lines = append(lines, ln)
		default:
			flush()
			first = i + 1
			lines = []string{ln}
		}
	}
	flush()
	return out
}
