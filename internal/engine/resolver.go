package engine

import (
	"context"
	"iter"
	"log/slog"

	"github.com/roach88/prolly/internal/term"
)

// Solution is one proof of a goal: the bindings of the goal's variables and
// the tags accumulated along the derivation.
type Solution struct {
	Binding term.Binding
	Tags    map[string]term.Atom
}

// Stats counts the work done by one query.
type Stats struct {
	Steps        int // rule applications attempted
	Unifications int // successful head matches
	Conflicts    int // merges dropped as inconsistent
	Pruned       int // branches cut by depth limit or loop check
	MaxDepth     int // deepest rule nesting reached
}

// Option configures a Resolver.
type Option func(*config)

type config struct {
	maxDepth  int
	maxSteps  int
	loopCheck bool
	logger    *slog.Logger
}

// WithMaxDepth prunes any branch that nests rule applications deeper than
// n. A pruned branch has zero solutions; it is not an error. Zero disables
// the limit.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithMaxSteps ends a query with StepsExceededError once it has attempted
// more than n rule applications. Zero disables the limit.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithLoopCheck enables pruning of goals that are variants of a goal
// already on the current proof branch.
func WithLoopCheck(enabled bool) Option {
	return func(c *config) {
		c.loopCheck = enabled
	}
}

// WithLogger sets the logger for debug output. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Resolver proves goals against an ordered list of rules.
//
// INVARIANTS:
//   - rules order never changes after construction
//   - rules are templates; every application instantiates fresh Vars
//   - a Resolver holds no per-query state and may serve many queries
type Resolver struct {
	rules []*term.Rule
	tags  TagSet
	cfg   config
}

// NewResolver creates a Resolver over rules, which must already be
// normalized and converted. The slice is copied.
func NewResolver(rules []*term.Rule, tags TagSet, opts ...Option) *Resolver {
	r := &Resolver{
		rules: append([]*term.Rule(nil), rules...),
		tags:  tags,
	}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	if r.cfg.logger == nil {
		r.cfg.logger = slog.Default()
	}
	return r
}

// Query is the private state of one resolution: its variable pool, step
// quota and counters. It must not be shared across goroutines.
type Query struct {
	ctx    context.Context
	r      *Resolver
	id     string
	pool   *VarPool
	quota  *QuotaEnforcer
	logger *slog.Logger
	stats  Stats
}

// NewQuery starts a query. Fresh rule variables are drawn from pool, which
// must be the pool the goal was normalized with. id only labels log lines.
func (r *Resolver) NewQuery(ctx context.Context, pool *VarPool, id string) *Query {
	logger := r.cfg.logger
	if id != "" {
		logger = logger.With("query_id", id)
	}
	return &Query{
		ctx:    ctx,
		r:      r,
		id:     id,
		pool:   pool,
		quota:  NewQuotaEnforcer(r.cfg.maxSteps),
		logger: logger,
	}
}

// Solve is shorthand for NewQuery(ctx, pool, "").Solve(goal).
func (r *Resolver) Solve(ctx context.Context, pool *VarPool, goal term.Term) iter.Seq2[Solution, error] {
	return r.NewQuery(ctx, pool, "").Solve(goal)
}

// Stats returns the counters accumulated so far.
func (q *Query) Stats() Stats {
	q.stats.Steps = q.quota.Current()
	return q.stats
}

// Solve yields the solutions of goal lazily, in depth-first left-to-right
// order. Bindings are restricted to the goal's own variables. The stream
// ends early with an error on context cancellation, quota exhaustion or a
// failing tag merge.
func (q *Query) Solve(goal term.Term) iter.Seq2[Solution, error] {
	return func(yield func(Solution, error) bool) {
		vars := goal.Vars()
		for sol, err := range q.solve(goal, 0, nil) {
			if err != nil {
				yield(Solution{}, err)
				return
			}
			sol.Binding = sol.Binding.Restrict(vars)
			if !yield(sol, nil) {
				return
			}
		}
	}
}

// Prove implements Prover for special terms.
func (q *Query) Prove(goal term.Term) iter.Seq2[Solution, error] {
	return q.solve(goal, 0, nil)
}

// scoped binds a Prover to the depth and path of the special term being
// proven, so that limits keep applying inside it.
type scoped struct {
	q     *Query
	depth int
	path  *goalPath
}

func (s scoped) Prove(goal term.Term) iter.Seq2[Solution, error] {
	return s.q.solve(goal, s.depth, s.path)
}

func (q *Query) solve(goal term.Term, depth int, path *goalPath) iter.Seq2[Solution, error] {
	switch g := goal.(type) {
	case *term.Conjunction:
		return q.solveConjunction(g.Goals, depth, path)
	case Special:
		return g.Prove(scoped{q: q, depth: depth, path: path})
	case *term.Compound:
		return q.solveGoal(g, depth, path)
	}
	if goal == term.True {
		return func(yield func(Solution, error) bool) {
			yield(Solution{Binding: term.Binding{}}, nil)
		}
	}
	// Atoms and unbound Vars match no rule head.
	return func(func(Solution, error) bool) {}
}

func (q *Query) solveGoal(goal *term.Compound, depth int, path *goalPath) iter.Seq2[Solution, error] {
	return func(yield func(Solution, error) bool) {
		if q.r.cfg.maxDepth > 0 && depth > q.r.cfg.maxDepth {
			q.stats.Pruned++
			q.logger.Debug("depth limit reached, pruning branch",
				"goal", goal.String(),
				"depth", depth)
			return
		}
		if depth > q.stats.MaxDepth {
			q.stats.MaxDepth = depth
		}

		if q.r.cfg.loopCheck {
			key, err := VariantKey(goal)
			if err != nil {
				yield(Solution{}, err)
				return
			}
			if path.WouldLoop(key) {
				q.stats.Pruned++
				q.logger.Debug("goal repeats an ancestor, pruning branch",
					"goal", goal.String(),
					"depth", depth)
				return
			}
			path = path.Push(key)
		}

		goalVars := goal.Vars()
		for _, rule := range q.r.rules {
			if err := q.ctx.Err(); err != nil {
				yield(Solution{}, err)
				return
			}
			if err := q.quota.Check(q.id); err != nil {
				q.logger.Error("max steps quota exceeded",
					"goal", goal.String(),
					"steps", q.quota.Current(),
					"limit", q.quota.MaxSteps())
				yield(Solution{}, err)
				return
			}

			inst := rule.Instantiate(q.pool)
			for b := range Match(inst.Head, goal) {
				q.stats.Unifications++

				if inst.IsFact() {
					sol := Solution{
						Binding: b.Restrict(goalVars),
						Tags:    q.r.tags.WithDefaults(inst.Head.Tags),
					}
					if !yield(sol, nil) {
						return
					}
					continue
				}

				body := inst.Body.Substitute(b)
				for sub, err := range q.solve(body, depth+1, path) {
					if err != nil {
						yield(Solution{}, err)
						return
					}
					merged, err := Merge(b, sub.Binding)
					if err != nil {
						q.stats.Conflicts++
						continue
					}
					tags, err := MergeTags(sub.Tags, inst.Head.Tags, q.r.tags.Rules)
					if err != nil {
						yield(Solution{}, err)
						return
					}
					if !yield(Solution{Binding: merged.Restrict(goalVars), Tags: tags}, nil) {
						return
					}
				}
			}
		}
	}
}

func (q *Query) solveConjunction(goals []term.Term, depth int, path *goalPath) iter.Seq2[Solution, error] {
	return func(yield func(Solution, error) bool) {
		if len(goals) == 0 {
			yield(Solution{Binding: term.Binding{}}, nil)
			return
		}
		first, rest := goals[0], goals[1:]
		for left, err := range q.solve(first, depth, path) {
			if err != nil {
				yield(Solution{}, err)
				return
			}
			if len(rest) == 0 {
				if !yield(left, nil) {
					return
				}
				continue
			}

			next := make([]term.Term, len(rest))
			for i, g := range rest {
				next[i] = g.Substitute(left.Binding)
			}
			for right, err := range q.solveConjunction(next, depth, path) {
				if err != nil {
					yield(Solution{}, err)
					return
				}
				merged, err := Merge(left.Binding, right.Binding)
				if err != nil {
					q.stats.Conflicts++
					continue
				}
				tags, err := MergeTags(left.Tags, right.Tags, q.r.tags.Rules)
				if err != nil {
					yield(Solution{}, err)
					return
				}
				if !yield(Solution{Binding: merged, Tags: tags}, nil) {
					return
				}
			}
		}
	}
}
