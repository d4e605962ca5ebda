package parse

import (
	"strconv"
	"strings"

	"github.com/roach88/prolly/internal/term"
)

func convertClause(c *clause, line int) (term.Clause, error) {
	if c.Tag != nil {
		return convertTagDecl(c.Tag, line)
	}
	return convertRule(c.Rule, line)
}

func convertRule(r *rule, line int) (*term.Rule, error) {
	head, err := convertTuple(r.Head, line)
	if err != nil {
		return nil, err
	}
	if len(r.Tags) > 0 {
		tags, err := convertTags(r.Tags, line)
		if err != nil {
			return nil, err
		}
		head = head.WithTags(tags)
	}
	if r.Body == nil {
		return term.NewFact(head), nil
	}
	body, err := convertBody(r.Body, line)
	if err != nil {
		return nil, err
	}
	return term.NewRule(head, body), nil
}

func convertBody(b *body, line int) (term.Term, error) {
	goals := make([]term.Term, 0, len(b.Goals))
	for _, g := range b.Goals {
		c, err := convertTuple(g, line)
		if err != nil {
			return nil, err
		}
		goals = append(goals, c)
	}
	return term.And(goals...), nil
}

func convertTuple(t *tuple, line int) (*term.Compound, error) {
	if len(t.Args) == 0 {
		return nil, errorf(line, "empty tuple")
	}
	args := make([]term.Term, len(t.Args))
	for i, a := range t.Args {
		if a.Tuple != nil {
			sub, err := convertTuple(a.Tuple, line)
			if err != nil {
				return nil, err
			}
			args[i] = sub
			continue
		}
		v, err := convertLiteral(a.Value, line)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return term.NewCompound(args...), nil
}

func convertTags(vals []*tagVal, line int) (map[string]term.Atom, error) {
	tags := make(map[string]term.Atom, len(vals))
	for _, tv := range vals {
		if _, dup := tags[tv.Key]; dup {
			return nil, errorf(line, "tag %q given twice", tv.Key)
		}
		a, err := convertAtom(tv.Value, line)
		if err != nil {
			return nil, err
		}
		tags[tv.Key] = a
	}
	return tags, nil
}

func convertTagDecl(d *tagDecl, line int) (*term.TagDecl, error) {
	decl := &term.TagDecl{Name: d.Name}
	if d.Default != nil {
		a, err := convertAtom(d.Default, line)
		if err != nil {
			return nil, err
		}
		decl.Default = &a
	}
	if d.Merge != nil {
		m, err := convertMerge(d.Merge, line)
		if err != nil {
			return nil, err
		}
		decl.Merge = m
	}
	return decl, nil
}

// convertLiteral maps identifiers starting with an upper-case letter or '_'
// to variables and everything else to atoms.
func convertLiteral(l *literal, line int) (term.Term, error) {
	if l.Ident != nil && term.IsVarName(*l.Ident) {
		if l.Neg {
			return nil, errorf(line, "minus sign before variable %s", *l.Ident)
		}
		return term.NewVar(*l.Ident), nil
	}
	return convertAtom(l, line)
}

func convertAtom(l *literal, line int) (term.Atom, error) {
	switch {
	case l.Number != nil:
		return convertNumber(*l.Number, l.Neg, line)
	case l.Neg:
		return term.Atom{}, errorf(line, "minus sign before non-number")
	case l.Str != nil:
		return term.Str(*l.Str), nil
	case term.IsVarName(*l.Ident):
		return term.Atom{}, errorf(line, "variable %s where a value is expected", *l.Ident)
	default:
		return term.Str(*l.Ident), nil
	}
}

func convertNumber(s string, neg bool, line int) (term.Atom, error) {
	if neg {
		s = "-" + s
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return term.Atom{}, errorf(line, "invalid number %s", s)
		}
		return term.Float(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return term.Atom{}, errorf(line, "integer %s out of range", s)
	}
	return term.Int(n), nil
}

func convertMerge(m *mergeDef, line int) (*term.MergeRule, error) {
	body, err := convertExpr(m.Body, line)
	if err != nil {
		return nil, err
	}
	rule := &term.MergeRule{Left: m.Left, Right: m.Right, Body: body}
	if err := rule.Validate(); err != nil {
		return nil, errorf(line, "merge rule: %v", err)
	}
	return rule, nil
}

func convertExpr(e *expr, line int) (term.Expr, error) {
	acc, err := convertProduct(e.Left, line)
	if err != nil {
		return nil, err
	}
	for _, s := range e.Rest {
		right, err := convertProduct(s.Right, line)
		if err != nil {
			return nil, err
		}
		acc = &term.BinOp{Op: s.Op[0], Left: acc, Right: right}
	}
	return acc, nil
}

func convertProduct(p *product, line int) (term.Expr, error) {
	acc, err := convertFactor(p.Left, line)
	if err != nil {
		return nil, err
	}
	for _, m := range p.Rest {
		right, err := convertFactor(m.Right, line)
		if err != nil {
			return nil, err
		}
		acc = &term.BinOp{Op: m.Op[0], Left: acc, Right: right}
	}
	return acc, nil
}

func convertFactor(f *factor, line int) (term.Expr, error) {
	var (
		e   term.Expr
		err error
	)
	switch {
	case f.Number != nil:
		n, err := strconv.ParseFloat(*f.Number, 64)
		if err != nil {
			return nil, errorf(line, "invalid number %s", *f.Number)
		}
		if f.Neg {
			return term.Num(-n), nil
		}
		return term.Num(n), nil
	case f.Call != nil:
		e, err = convertCall(f.Call, line)
	default:
		e, err = convertExpr(f.Sub, line)
	}
	if err != nil {
		return nil, err
	}
	if f.Neg {
		return &term.BinOp{Op: '-', Left: term.Num(0), Right: e}, nil
	}
	return e, nil
}

func convertCall(c *call, line int) (term.Expr, error) {
	if len(c.Args) == 0 {
		return term.Ref(c.Name), nil
	}
	args := make([]term.Expr, len(c.Args))
	for i, a := range c.Args {
		e, err := convertExpr(a, line)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return &term.Call{Fn: c.Name, Args: args}, nil
}
