package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/prolly/internal/brain"
	"github.com/roach88/prolly/internal/compiler"
	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/ir"
	"github.com/roach88/prolly/internal/parse"
	"github.com/roach88/prolly/internal/term"
	"github.com/roach88/prolly/internal/testutil"
)

// Error codes reported in QueryResult.ErrorCode and matched by
// QueryCase.Error. Database and runtime errors report their own codes
// (brain.ErrCodeMalformedClause, engine.ErrCodeQuotaExceeded, ...).
const (
	ErrCodeParse    = "PARSE_ERROR"
	ErrCodeTimeout  = "TIMEOUT"
	ErrCodeCanceled = "CANCELED"
	ErrCodeUnknown  = "ERROR"
)

// Harness is the test execution engine.
// It runs one scenario against a fresh database with deterministic query IDs.
type Harness struct {
	db     *brain.Brain
	ids    *recordingIDs
	logger *slog.Logger
}

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger for the run and its database.
// Defaults to discarding logs.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh database for isolation.
// Execution flow:
// 1. Create a database with the scenario's resolver limits
// 2. Load knowledge files, then inline clauses
// 3. Run each query, collecting answers up to its limit or first error
// 4. Evaluate expectations into the result's errors
//
// A knowledge base that fails to load is returned as an error; query
// failures are recorded in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	h, err := newHarness(scenario, cfg.logger)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, qc := range scenario.Queries {
		qr, err := h.executeQuery(ctx, qc)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		result.AddQuery(qr)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Queries) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"queries", len(result.Queries),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(s *Scenario, logger *slog.Logger) (*Harness, error) {
	prefix := s.QueryIDPrefix
	if prefix == "" {
		prefix = s.Name
	}
	ids := &recordingIDs{gen: testutil.NewSequentialIDs(prefix)}

	var resolverOpts []engine.Option
	if s.Options.MaxDepth > 0 {
		resolverOpts = append(resolverOpts, engine.WithMaxDepth(s.Options.MaxDepth))
	}
	if s.Options.MaxSteps > 0 {
		resolverOpts = append(resolverOpts, engine.WithMaxSteps(s.Options.MaxSteps))
	}
	if s.Options.LoopCheck {
		resolverOpts = append(resolverOpts, engine.WithLoopCheck(true))
	}

	db := brain.New(
		brain.WithLogger(logger),
		brain.WithQueryIDs(ids),
		brain.WithResolverOptions(resolverOpts...),
	)

	clauses, err := loadClauses(s)
	if err != nil {
		return nil, err
	}
	if err := db.AddAll(clauses...); err != nil {
		return nil, fmt.Errorf("failed to load knowledge: %w", err)
	}

	logger.Debug("knowledge loaded", "scenario", s.Name, "clauses", len(clauses))
	return &Harness{db: db, ids: ids, logger: logger}, nil
}

// loadClauses reads the knowledge files in order, then the inline text.
func loadClauses(s *Scenario) ([]term.Clause, error) {
	var clauses []term.Clause
	if len(s.Knowledge) > 0 {
		loaded, err := compiler.Load(s.Knowledge...)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge: %w", err)
		}
		clauses = append(clauses, loaded...)
	}
	for i, src := range s.Clauses {
		parsed, err := parse.ParseProgram(src)
		if err != nil {
			return nil, fmt.Errorf("clauses[%d]: %w", i, err)
		}
		clauses = append(clauses, parsed...)
	}
	return clauses, nil
}

// executeQuery runs one query case. Only an unparseable query text is
// returned as an error; the database's own errors land in the result.
func (h *Harness) executeQuery(ctx context.Context, qc QueryCase) (QueryResult, error) {
	qr := QueryResult{Query: qc.Query, Answers: []ir.Answer{}}

	goal, err := parse.ParseQuery(qc.Query)
	if err != nil {
		if qc.Error == ErrCodeParse {
			qr.ErrorCode, qr.Error = ErrCodeParse, err.Error()
			return qr, nil
		}
		return qr, err
	}

	before := h.ids.Current()
	for a, err := range h.db.Query(ctx, goal) {
		if err != nil {
			qr.ErrorCode, qr.Error = ErrorCode(err), err.Error()
			break
		}
		qr.Answers = append(qr.Answers, a)
		if qc.Limit > 0 && len(qr.Answers) >= qc.Limit {
			break
		}
	}
	if h.ids.Current() != before {
		qr.QueryID = h.ids.Last()
	}

	h.logger.Debug("query completed",
		"query", qc.Query,
		"query_id", qr.QueryID,
		"answers", len(qr.Answers),
		"error_code", qr.ErrorCode,
	)
	return qr, nil
}

// ErrorCode classifies an error from loading or querying.
func ErrorCode(err error) string {
	var (
		ce *brain.ClauseError
		re *engine.RuntimeError
		pe *parse.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return string(ce.Code)
	case engine.IsQuotaError(err):
		return string(engine.ErrCodeQuotaExceeded)
	case errors.As(err, &re):
		return string(re.Code)
	case errors.As(err, &pe):
		return ErrCodeParse
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	default:
		return ErrCodeUnknown
	}
}

// recordingIDs remembers the last ID handed out, so a query's ID can be
// reported after the database generated it.
type recordingIDs struct {
	mu   sync.Mutex
	gen  *testutil.SequentialIDs
	last string
}

func (r *recordingIDs) Generate() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = r.gen.Generate()
	return r.last
}

func (r *recordingIDs) Current() int64 {
	return r.gen.Current()
}

func (r *recordingIDs) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
