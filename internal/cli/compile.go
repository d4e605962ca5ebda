package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prolly/internal/compiler"
	"github.com/roach88/prolly/internal/term"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled clauses.
type CompilationResult struct {
	Clauses []string `json:"clauses"`
	Tags    int      `json:"tags"`
	Facts   int      `json:"facts"`
	Rules   int      `json:"rules"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <knowledge>...",
		Short: "Compile knowledge files to clause text",
		Long: `Compile CUE and text knowledge files into one program in the clause
text syntax, one clause per line, in the order a database adds them.

The output loads back with "prolly query" and gives the same answers.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	clauses, err := LoadKnowledge(paths)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d clause(s) from %d path(s)", len(clauses), len(paths))

	// Reject what a database would reject before writing anything.
	if _, err := newBrain(clauses, opts.logger()); err != nil {
		return outputLoadError(formatter, err)
	}

	result := compileClauses(clauses)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Program()), 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %d clause(s) to %s", len(result.Clauses), opts.Output)
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func compileClauses(clauses []term.Clause) *CompilationResult {
	kb := compiler.KnowledgeBase{Clauses: clauses}
	result := &CompilationResult{Clauses: make([]string, len(clauses))}
	result.Tags, result.Facts, result.Rules = kb.Counts()
	for i, c := range clauses {
		result.Clauses[i] = c.String()
	}
	return result
}

// Program renders the clauses as a knowledge file.
func (r *CompilationResult) Program() string {
	if len(r.Clauses) == 0 {
		return ""
	}
	return strings.Join(r.Clauses, "\n") + "\n"
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// With an output file, stdout gets a summary instead of the program.
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %d tag(s), %d fact(s), %d rule(s)\n",
			result.Tags, result.Facts, result.Rules)
		fmt.Fprintf(formatter.Writer, "Wrote %d clause(s) to %s\n", len(result.Clauses), outputFile)
		return nil
	}

	fmt.Fprint(formatter.Writer, result.Program())
	return nil
}
