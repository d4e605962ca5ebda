package brain

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/ir"
	"github.com/roach88/prolly/internal/term"
)

// Brain is the database: rules in insertion order, tag declarations by
// name, and the special-term registry.
type Brain struct {
	pool     *engine.VarPool
	registry *engine.Registry
	rules    []*term.Rule
	decls    map[string]*term.TagDecl
	order    []string // tag names in declaration order

	logger       *slog.Logger
	ids          engine.QueryIDGenerator
	resolverOpts []engine.Option
}

// Option configures a Brain.
type Option func(*Brain)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) {
		b.logger = l
	}
}

// WithQueryIDs sets the generator of query IDs used in log lines.
// Defaults to UUIDv7.
func WithQueryIDs(g engine.QueryIDGenerator) Option {
	return func(b *Brain) {
		b.ids = g
	}
}

// WithResolverOptions passes limits (max depth, max steps, loop check) to
// every query.
func WithResolverOptions(opts ...engine.Option) Option {
	return func(b *Brain) {
		b.resolverOpts = append(b.resolverOpts, opts...)
	}
}

// New creates an empty Brain with the built-in special terms registered.
func New(opts ...Option) *Brain {
	b := &Brain{
		pool:     engine.NewVarPool(),
		registry: engine.NewRegistry(),
		decls:    make(map[string]*term.TagDecl),
		logger:   slog.Default(),
		ids:      engine.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// =============================================================================
// Loading
// =============================================================================

// Add stores one clause. A Rule is normalized (one fresh Var per distinct
// name, scoped to the rule), its special terms are converted, and it is
// appended to the rule list. A TagDecl replaces any earlier declaration of
// the same tag. Anything else is rejected with a MalformedClause error and
// leaves the Brain unchanged.
func (b *Brain) Add(c term.Clause) error {
	return b.AddAll(c)
}

// AddAll stores clauses in order. Either all of them are stored or, on the
// first malformed clause, none are.
func (b *Brain) AddAll(clauses ...term.Clause) error {
	var rules []*term.Rule
	var decls []*term.TagDecl
	for _, c := range clauses {
		switch x := c.(type) {
		case *term.Rule:
			r, err := b.prepareRule(x)
			if err != nil {
				return err
			}
			rules = append(rules, r)
		case *term.TagDecl:
			if err := validateDecl(x); err != nil {
				return err
			}
			decls = append(decls, x)
		default:
			return malformed(nil, nil, "unsupported clause %T", c)
		}
	}

	b.rules = append(b.rules, rules...)
	for _, d := range decls {
		if _, exists := b.decls[d.Name]; !exists {
			b.order = append(b.order, d.Name)
		}
		b.decls[d.Name] = d
	}
	return nil
}

func (b *Brain) prepareRule(r *term.Rule) (*term.Rule, error) {
	if r == nil || r.Head == nil {
		return nil, malformed(nil, nil, "rule has no head")
	}
	if r.Head.Arity() == 0 {
		return nil, malformed(r, nil, "rule head is an empty term")
	}
	if r.Body == nil {
		return nil, malformed(r.Head, nil, "rule has no body")
	}
	if err := validateBody(r.Body, true); err != nil {
		return nil, malformed(r, nil, "%s", err)
	}

	scratch := engine.NewVarPoolAt(b.pool.Current())
	n := r.Normalize(scratch)

	head, err := b.registry.ConvertArgs(n.Head)
	if err != nil {
		return nil, malformed(r, err, "invalid special term in head")
	}
	if b.registry.IsSpecial(head) {
		return nil, malformed(r, nil, "cannot define rules for special term %s", head.Args[0])
	}
	body, err := b.registry.Convert(n.Body)
	if err != nil {
		return nil, malformed(r, err, "invalid special term in body")
	}

	// Commit the variable IDs only once the rule is known to be valid.
	b.pool = engine.NewVarPoolAt(scratch.Current())
	return &term.Rule{Head: head, Body: body}, nil
}

func validateBody(t term.Term, top bool) error {
	switch x := t.(type) {
	case *term.Compound:
		if x.Arity() == 0 {
			return fmt.Errorf("empty goal ()")
		}
		return nil
	case *term.Conjunction:
		if len(x.Goals) == 0 {
			return fmt.Errorf("empty conjunction")
		}
		for _, g := range x.Goals {
			if g == term.True {
				return fmt.Errorf("true inside a conjunction")
			}
			if err := validateBody(g, false); err != nil {
				return err
			}
		}
		return nil
	case term.Wrapper:
		return nil
	}
	if top && t == term.True {
		return nil
	}
	return fmt.Errorf("goal %s is not a term", t)
}

func validateDecl(d *term.TagDecl) error {
	if d == nil || d.Name == "" {
		return malformed(nil, nil, "tag declaration has no name")
	}
	if d.Merge != nil {
		if err := d.Merge.Validate(); err != nil {
			return malformed(d, err, "invalid merge rule for tag %q", d.Name)
		}
	}
	return nil
}

// AddTermType registers a special-term factory under functor, replacing
// any earlier one. It applies to clauses added and queries run afterwards.
func (b *Brain) AddTermType(functor string, factory engine.Factory) {
	b.registry.Register(functor, factory)
}

// =============================================================================
// Introspection
// =============================================================================

// Rules returns the stored rules in order.
func (b *Brain) Rules() []*term.Rule {
	return append([]*term.Rule(nil), b.rules...)
}

// Len returns the number of stored rules.
func (b *Brain) Len() int {
	return len(b.rules)
}

// TagDecls returns the tag declarations in the order they were first made.
func (b *Brain) TagDecls() []*term.TagDecl {
	out := make([]*term.TagDecl, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.decls[name])
	}
	return out
}

// DefaultTags returns the declared default value of every tag that has one.
func (b *Brain) DefaultTags() map[string]term.Atom {
	out := make(map[string]term.Atom)
	for name, d := range b.decls {
		if d.Default != nil {
			out[name] = *d.Default
		}
	}
	return out
}

// TagMergeRules returns the declared merge rule of every tag that has one.
func (b *Brain) TagMergeRules() map[string]*term.MergeRule {
	out := make(map[string]*term.MergeRule)
	for name, d := range b.decls {
		if d.Merge != nil {
			out[name] = d.Merge
		}
	}
	return out
}

// SpecialFunctors returns the functors with registered special terms.
func (b *Brain) SpecialFunctors() []string {
	return b.registry.Functors()
}

// =============================================================================
// Querying
// =============================================================================

// Query proves goal and yields its distinct answers lazily, in proof order.
//
// The goal may be a term, a conjunction or a special term; its variables
// are the answer keys. A malformed goal yields one MalformedClause error.
// Limits set with WithResolverOptions end the stream with an error; so does
// cancelling ctx. Stopping the range loop abandons the search.
func (b *Brain) Query(ctx context.Context, goal term.Term) iter.Seq2[ir.Answer, error] {
	return Dedup(b.solve(ctx, goal))
}

func (b *Brain) solve(ctx context.Context, goal term.Term) iter.Seq2[ir.Answer, error] {
	return func(yield func(ir.Answer, error) bool) {
		if goal == nil {
			yield(ir.Answer{}, malformed(nil, nil, "query has no goal"))
			return
		}
		if _, isWrapper := goal.(term.Wrapper); !isWrapper {
			if err := validateBody(goal, false); err != nil {
				yield(ir.Answer{}, malformed(goal, nil, "%s", err))
				return
			}
		}

		pool := engine.NewVarPoolAt(b.pool.Current())
		scope := term.NewScope(pool)
		normalized := goal.Normalize(scope)
		converted, err := b.registry.Convert(normalized)
		if err != nil {
			yield(ir.Answer{}, malformed(goal, err, "invalid special term in query"))
			return
		}

		id := b.ids.Generate()
		logger := b.logger.With("query_id", id)
		opts := append([]engine.Option{engine.WithLogger(b.logger)}, b.resolverOpts...)
		q := engine.NewResolver(b.rules, b.tagSet(), opts...).NewQuery(ctx, pool, id)

		logger.Debug("query started", "goal", converted.String(), "rules", len(b.rules))
		named := scope.Named()
		proofs := 0
		for sol, err := range q.Solve(converted) {
			if err != nil {
				logger.Debug("query failed", "error", err)
				yield(ir.Answer{}, err)
				return
			}
			proofs++
			if !yield(b.project(named, sol), nil) {
				logger.Debug("query abandoned", "proofs", proofs, "steps", q.Stats().Steps)
				return
			}
		}
		stats := q.Stats()
		logger.Debug("query finished",
			"proofs", proofs,
			"steps", stats.Steps,
			"conflicts", stats.Conflicts,
			"pruned", stats.Pruned)
	}
}

// QueryAll collects every distinct answer.
func (b *Brain) QueryAll(ctx context.Context, goal term.Term) ([]ir.Answer, error) {
	var out []ir.Answer
	for a, err := range b.Query(ctx, goal) {
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// First returns the first answer, or false when the goal has none. The
// rest of the search is never explored.
func (b *Brain) First(ctx context.Context, goal term.Term) (ir.Answer, bool, error) {
	for a, err := range b.Query(ctx, goal) {
		if err != nil {
			return ir.Answer{}, false, err
		}
		return a, true, nil
	}
	return ir.Answer{}, false, nil
}

func (b *Brain) tagSet() engine.TagSet {
	return engine.TagSet{Defaults: b.DefaultTags(), Rules: b.TagMergeRules()}
}

// project reduces a solution to plain values for the named query
// variables. Variables left unbound render as ir.Unbound: query variables
// by name, rule-internal ones as _G1, _G2, ... numbered in the order they
// first appear in the answer, so equal answers from different proofs render
// identically and deduplicate.
func (b *Brain) project(named map[string]term.Var, sol engine.Solution) ir.Answer {
	names := make(map[term.Var]string, len(named))
	for name, v := range named {
		names[v] = name
	}
	fresh := make(map[term.Var]string)
	render := func(v term.Var) ir.Value {
		if name, ok := names[v]; ok {
			return ir.Unbound{Name: name}
		}
		name, ok := fresh[v]
		if !ok {
			name = fmt.Sprintf("_G%d", len(fresh)+1)
			fresh[v] = name
		}
		return ir.Unbound{Name: name}
	}

	vars := make(ir.Object, len(named))
	for _, name := range slices.Sorted(maps.Keys(named)) {
		vars[name] = engine.ProjectWith(sol.Binding.Resolve(named[name]), render)
	}

	tags := maps.Clone(b.DefaultTags())
	maps.Copy(tags, sol.Tags)
	return ir.Answer{Vars: vars, Tags: engine.ProjectTags(tags)}
}
