package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/ir"
	"github.com/roach88/prolly/internal/parse"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Query     string
	Limit     int
	MaxDepth  int
	MaxSteps  int
	LoopCheck bool
	Timeout   time.Duration
}

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	Query   string      `json:"query"`
	Answers []ir.Answer `json:"answers"`
	Count   int         `json:"count"`
	// Limited is true when the answer limit stopped the search early.
	Limited bool `json:"limited,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <knowledge>... -q <goal>",
		Short: "Answer a query over knowledge files",
		Long: `Load knowledge files (.pl, .prolly, .kb text or .cue) and print every
distinct answer to the goal, in proof order.

Search limits are off unless set here or in the config file. A left-
recursive rule needs --loop-check, --max-depth or --max-steps to stop.

Exit codes:
  0 - Query ran (zero answers included)
  1 - Query failed at run time (step quota, timeout, tag merge)
  2 - Command error (missing files, parse errors, malformed clauses)

Examples:
  prolly query family.pl -q "(parent, X, alicia)"
  prolly query ./kb -q "(ancestor, A, alicia)" --loop-check
  prolly query kb.cue -q "(likes, bob, X)" --limit 1 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "goal to prove (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "stop after N answers (0 = all)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "prune rule nesting deeper than N (0 = unlimited)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "fail the query after N resolution steps (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.LoopCheck, "loop-check", false, "prune goals that repeat an ancestor goal")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "fail the query after this duration (0 = none)")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// applyConfig fills every flag not given on the command line from the
// config file.
func (o *QueryOptions) applyConfig(cmd *cobra.Command) {
	cfg := o.config()
	changed := cmd.Flags().Changed
	if !changed("limit") {
		o.Limit = cfg.Output.Limit
	}
	if !changed("max-depth") {
		o.MaxDepth = cfg.Resolver.MaxDepth
	}
	if !changed("max-steps") {
		o.MaxSteps = cfg.Resolver.MaxSteps
	}
	if !changed("loop-check") {
		o.LoopCheck = cfg.Resolver.LoopCheck
	}
	if !changed("timeout") {
		o.Timeout = cfg.GetTimeout()
	}
}

func (o *QueryOptions) resolverOptions() []engine.Option {
	var opts []engine.Option
	if o.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(o.MaxDepth))
	}
	if o.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(o.MaxSteps))
	}
	if o.LoopCheck {
		opts = append(opts, engine.WithLoopCheck(true))
	}
	return opts
}

func runQuery(opts *QueryOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	opts.applyConfig(cmd)

	if opts.Limit < 0 || opts.MaxDepth < 0 || opts.MaxSteps < 0 {
		return outputCommandError(formatter, ErrCodeGeneric, "limits must not be negative", nil)
	}

	clauses, err := LoadKnowledge(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d clause(s) from %d path(s)", len(clauses), len(paths))

	db, err := newBrain(clauses, opts.logger(), opts.resolverOptions()...)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	goal, err := parse.ParseQuery(opts.Query)
	if err != nil {
		return outputCommandError(formatter, ErrCodeParse, err.Error(), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := QueryResult{Query: opts.Query, Answers: []ir.Answer{}}
	var queryErr error
	for a, err := range db.Query(ctx, goal) {
		if err != nil {
			queryErr = err
			break
		}
		result.Answers = append(result.Answers, a)
		if opts.Limit > 0 && len(result.Answers) >= opts.Limit {
			result.Limited = true
			break
		}
	}
	result.Count = len(result.Answers)

	if queryErr != nil {
		return outputQueryFailure(formatter, result, queryErr)
	}
	return outputQuerySuccess(formatter, result)
}

// queryErrorCode maps a query runtime error to a CLI error code.
func queryErrorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case engine.IsQuotaError(err):
		return ErrCodeQuota
	default:
		if le := classifyError(err); le.Code == ErrCodeMalformed {
			return ErrCodeMalformed
		}
		return ErrCodeRuntime
	}
}

// outputQuerySuccess prints the answers.
func outputQuerySuccess(formatter *OutputFormatter, result QueryResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	writeAnswers(formatter, result)
	return nil
}

// outputQueryFailure prints the answers found before the error, then the
// error itself. A malformed goal is a command error; anything else is a
// run-time failure.
func outputQueryFailure(formatter *OutputFormatter, result QueryResult, err error) error {
	code := queryErrorCode(err)
	exit := ExitFailure
	if code == ErrCodeMalformed {
		exit = ExitCommandError
	}

	if formatter.Format == "json" {
		if encErr := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: code, Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
		return WrapExitError(exit, "query failed", err)
	}

	if result.Count > 0 {
		writeAnswers(formatter, result)
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(exit, "query failed", err)
}

// writeAnswers prints one answer per line, or "no" when there are none.
func writeAnswers(formatter *OutputFormatter, result QueryResult) {
	if result.Count == 0 {
		fmt.Fprintln(formatter.Writer, "no")
		return
	}
	for _, a := range result.Answers {
		fmt.Fprintln(formatter.Writer, a.String())
	}
	formatter.VerboseLog("%d answer(s)", result.Count)
}
