package term

// Clause is what a front-end hands to a database: a *Rule or a *TagDecl.
type Clause interface {
	clause()
	String() string
}

// Rule is a (head, body) pair. A body of True makes the rule a fact.
type Rule struct {
	Head *Compound
	Body Term
}

func (*Rule) clause() {}

// NewFact creates a rule with a True body.
func NewFact(head *Compound) *Rule {
	return &Rule{Head: head, Body: True}
}

// NewRule creates a rule. A nil body is treated as True.
func NewRule(head *Compound, body Term) *Rule {
	if body == nil {
		body = True
	}
	return &Rule{Head: head, Body: body}
}

// IsFact reports whether the rule is an unconditional fact.
func (r *Rule) IsFact() bool {
	_, ok := r.Body.(trueTerm)
	return ok
}

func (r *Rule) String() string {
	if r.IsFact() {
		return r.Head.String()
	}
	return r.Head.String() + " if " + r.Body.String()
}

// Normalize returns a copy of the rule in which every distinct variable
// name is mapped to one Var drawn from src. The same name in head and body
// becomes the same Var.
func (r *Rule) Normalize(src VarSource) *Rule {
	s := NewScope(src)
	head := r.Head.Normalize(s).(*Compound)
	return &Rule{Head: head, Body: r.Body.Normalize(s)}
}

// Vars returns the distinct variables of head and body.
func (r *Rule) Vars() []Var {
	return collectVars(r.Head, r.Body)
}

// Instantiate renames the rule apart: every variable is replaced by a fresh
// Var with the same name drawn from src. Ground rules are returned as-is.
func (r *Rule) Instantiate(src VarSource) *Rule {
	vars := r.Vars()
	if len(vars) == 0 {
		return r
	}
	renaming := make(Binding, len(vars))
	for _, v := range vars {
		renaming[v] = src.NewVar(v.Name)
	}
	head := r.Head.Substitute(renaming).(*Compound)
	return &Rule{Head: head, Body: r.Body.Substitute(renaming)}
}
