package term

import (
	"fmt"
	"math"
	"strings"
)

// TagDecl declares the properties of one tag: an optional default value and
// an optional merge rule used when two derivations are combined in a
// conjunction.
type TagDecl struct {
	Name    string
	Default *Atom
	Merge   *MergeRule
}

func (*TagDecl) clause() {}

func (d *TagDecl) String() string {
	var sb strings.Builder
	sb.WriteString("tag ")
	sb.WriteString(d.Name)
	if d.Default != nil {
		sb.WriteString(" default ")
		sb.WriteString(d.Default.String())
	}
	if d.Merge != nil {
		sb.WriteString(" merge ")
		sb.WriteString(d.Merge.String())
	}
	return sb.String()
}

// MergeRule is a binary operator over two named operands, e.g.
//
//	a, b => a * b
//
// Left names the value of the left conjunct, Right the value of the right.
type MergeRule struct {
	Left  string
	Right string
	Body  Expr
}

func (m *MergeRule) String() string {
	return fmt.Sprintf("%s, %s => %s", m.Left, m.Right, m.Body)
}

// Validate checks that the body only references the two operands and calls
// known functions.
func (m *MergeRule) Validate() error {
	if m.Left == "" || m.Right == "" {
		return fmt.Errorf("merge rule needs two operand names")
	}
	if m.Left == m.Right {
		return fmt.Errorf("merge operands must differ, both are %q", m.Left)
	}
	if m.Body == nil {
		return fmt.Errorf("merge rule has no body")
	}
	return validateExpr(m.Body, m.Left, m.Right)
}

// Apply combines two tag values. Both must be numeric. The result is an
// integer atom when both inputs are integers and the result is an
// integral value in int64 range. A non-finite result is an error.
func (m *MergeRule) Apply(left, right Atom) (Atom, error) {
	l, ok := left.Number()
	if !ok {
		return Atom{}, fmt.Errorf("left operand %s is not a number", left)
	}
	r, ok := right.Number()
	if !ok {
		return Atom{}, fmt.Errorf("right operand %s is not a number", right)
	}
	v, err := m.Body.Eval(map[string]float64{m.Left: l, m.Right: r})
	if err != nil {
		return Atom{}, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Atom{}, fmt.Errorf("result of %s and %s is not finite", left, right)
	}
	if left.IsInt() && right.IsInt() && v == math.Trunc(v) && fitsInt64(v) {
		return Int(int64(v)), nil
	}
	return Float(v), nil
}

// fitsInt64 reports whether an integral float converts to int64 exactly.
// 2^63 itself is out of range.
func fitsInt64(v float64) bool {
	return v >= math.MinInt64 && v < -math.MinInt64
}

// =============================================================================
// Expression trees
// =============================================================================

// Expr is an arithmetic expression node: Num, Ref, BinOp or Call.
type Expr interface {
	Eval(env map[string]float64) (float64, error)
	String() string
}

// Num is a numeric literal.
type Num float64

func (n Num) Eval(map[string]float64) (float64, error) { return float64(n), nil }
func (n Num) String() string { return formatFloat(float64(n)) }

// Ref is a reference to a named operand.
type Ref string

func (r Ref) Eval(env map[string]float64) (float64, error) {
	v, ok := env[string(r)]
	if !ok {
		return 0, fmt.Errorf("unknown operand %q", string(r))
	}
	return v, nil
}

func (r Ref) String() string { return string(r) }

// BinOp applies one of + - * / to two sub-expressions.
type BinOp struct {
	Op    byte
	Left  Expr
	Right Expr
}

func (b *BinOp) Eval(env map[string]float64) (float64, error) {
	l, err := b.Left.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.Right.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		return l / r, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", b.Op)
	}
}

func (b *BinOp) String() string {
	return fmt.Sprintf("(%s %c %s)", b.Left, b.Op, b.Right)
}

// Call applies a named function: min or max over one or more arguments.
type Call struct {
	Fn   string
	Args []Expr
}

var mergeFuncs = map[string]func(a, b float64) float64{
	"min": math.Min,
	"max": math.Max,
}

func (c *Call) Eval(env map[string]float64) (float64, error) {
	fn, ok := mergeFuncs[c.Fn]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", c.Fn)
	}
	if len(c.Args) == 0 {
		return 0, fmt.Errorf("%s needs at least one argument", c.Fn)
	}
	acc, err := c.Args[0].Eval(env)
	if err != nil {
		return 0, err
	}
	for _, arg := range c.Args[1:] {
		v, err := arg.Eval(env)
		if err != nil {
			return 0, err
		}
		acc = fn(acc, v)
	}
	return acc, nil
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(parts, ", ") + ")"
}

func validateExpr(e Expr, left, right string) error {
	switch x := e.(type) {
	case Num:
		return nil
	case Ref:
		if string(x) != left && string(x) != right {
			return fmt.Errorf("unknown operand %q (expected %q or %q)", string(x), left, right)
		}
		return nil
	case *BinOp:
		if !strings.ContainsRune("+-*/", rune(x.Op)) {
			return fmt.Errorf("unknown operator %q", x.Op)
		}
		if err := validateExpr(x.Left, left, right); err != nil {
			return err
		}
		return validateExpr(x.Right, left, right)
	case *Call:
		if _, ok := mergeFuncs[x.Fn]; !ok {
			return fmt.Errorf("unknown function %q", x.Fn)
		}
		if len(x.Args) == 0 {
			return fmt.Errorf("%s needs at least one argument", x.Fn)
		}
		for _, a := range x.Args {
			if err := validateExpr(a, left, right); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
}
