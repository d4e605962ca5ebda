package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prolly/internal/compiler"
	"github.com/roach88/prolly/internal/term"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool // left-recursion warnings fail the check
}

// CheckResult holds the outcome of checking a knowledge base.
type CheckResult struct {
	Valid    bool                       `json:"valid"`
	Tags     int                        `json:"tags"`
	Facts    int                        `json:"facts"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <knowledge>...",
		Short: "Check knowledge files without running queries",
		Long: `Load knowledge files and report mistakes the database accepts but
that make queries fail: goals no clause can match, duplicate or non-numeric
tags. Recursive predicates are listed; left recursion is a warning because
it needs the loop check or a search limit to terminate.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat left-recursion warnings as errors")

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	clauses, err := LoadKnowledge(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	// The database rejects what Validate cannot see (bad special terms,
	// invalid merge rules), so load it too.
	db, err := newBrain(clauses, opts.logger())
	if err != nil {
		return outputLoadError(formatter, err)
	}

	result, failed := CheckClauses(clauses, db.SpecialFunctors(), opts.Strict)
	formatter.VerboseLog("Checked %d clause(s): %d tag(s), %d fact(s), %d rule(s)",
		len(clauses), result.Tags, result.Facts, result.Rules)

	return outputCheckResult(formatter, result, failed)
}

// CheckClauses lints clauses and analyzes recursion. failed reports
// whether the result should fail the command.
func CheckClauses(clauses []term.Clause, specials []string, strict bool) (CheckResult, bool) {
	kb := compiler.KnowledgeBase{Clauses: clauses}
	tags, facts, rules := kb.Counts()

	result := CheckResult{
		Tags:     tags,
		Facts:    facts,
		Rules:    rules,
		Errors:   compiler.Validate(clauses, specials...),
		Warnings: compiler.AnalyzeCycles(clauses),
	}

	failed := len(result.Errors) > 0
	if strict {
		for _, w := range result.Warnings {
			if w.Level == "warning" {
				failed = true
			}
		}
	}
	result.Valid = !failed
	return result, failed
}

// outputCheckResult outputs the check result.
func outputCheckResult(formatter *OutputFormatter, result CheckResult, failed bool) error {
	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if failed {
			response.Status = "error"
			response.Error = checkFailure(result)
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		if failed {
			return NewExitError(ExitFailure, response.Error.Message)
		}
		return nil
	}

	w := formatter.Writer
	if failed {
		fmt.Fprintln(w, "✗ Check failed")
	} else {
		fmt.Fprintf(w, "✓ Knowledge base valid: %d tag(s), %d fact(s), %d rule(s)\n",
			result.Tags, result.Facts, result.Rules)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "line %d\n", e.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, cw := range result.Warnings {
			fmt.Fprintf(w, "%s: %s\n", cw.Level, cw.Message)
		}
	}

	if failed {
		return NewExitError(ExitFailure, checkFailure(result).Message)
	}
	return nil
}

// checkFailure summarizes why a check failed.
func checkFailure(result CheckResult) *CLIError {
	if len(result.Errors) > 0 {
		return &CLIError{
			Code:    result.Errors[0].Code,
			Message: fmt.Sprintf("check failed with %d error(s)", len(result.Errors)),
		}
	}
	return &CLIError{
		Code:    ErrCodeGeneric,
		Message: "check failed: left recursion in strict mode",
	}
}
