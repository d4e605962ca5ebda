package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prolly/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // scenarios run at once; 0 uses the config value
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>...",
		Short: "Run query scenarios",
		Long: `Run YAML query scenarios, each against a fresh database loaded with
its knowledge, and check the answers they expect.

A scenario with a golden file at golden/<name>.golden next to it must also
reproduce the recorded answers exactly; --update rewrites those files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  prolly test ./scenarios
  prolly test ./scenarios --filter "family*"
  prolly test ./scenarios --update
  prolly test ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "scenarios to run at once (default from config)")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, paths []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if !cmd.Flags().Changed("parallel") {
		opts.Parallel = opts.config().Harness.Parallel
	}
	if opts.Parallel < 0 {
		return outputCommandError(formatter, ErrCodeGeneric, "parallel must be non-negative", nil)
	}

	var files []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("scenarios not found: %s", p), nil)
		}
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return outputCommandError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		if formatter.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}
	formatter.VerboseLog("Running %d scenario(s), %d at a time", len(files), opts.Parallel)

	suite, err := harness.RunAll(ctx, files, opts.Parallel, harness.WithLogger(opts.logger()))
	if err != nil {
		return outputCommandError(formatter, ErrCodeTimeout, err.Error(), nil)
	}

	failures := make(map[string]string, len(suite.Failures))
	for _, f := range suite.Failures {
		failures[f.Path] = f.Error
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(suite.Results)),
		Total:     suite.Total,
	}
	for _, outcome := range suite.Results {
		sr := scenarioResult(outcome, failures[outcome.Path], opts.Update)
		if formatter.Format != "json" {
			printScenarioResult(formatter, sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// findScenarioFiles finds scenario files under path whose name matches
// filter.
func findScenarioFiles(path string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	found, err := harness.FindScenarios(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}
	if filter == "" {
		return found, nil
	}

	var files []string
	for _, f := range found {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if matched, _ := filepath.Match(filter, name); matched {
			files = append(files, f)
		}
	}
	return files, nil
}

// scenarioResult folds the harness outcome and the golden file check into
// one result.
func scenarioResult(outcome harness.ScenarioOutcome, failure string, update bool) ScenarioResult {
	sr := ScenarioResult{
		Name: outcome.Scenario,
		Path: outcome.Path,
		Pass: failure == "",
	}
	if sr.Name == "" {
		sr.Name = filepath.Base(outcome.Path)
	}
	if outcome.Result == nil {
		sr.Errors = []string{failure}
		return sr
	}
	if !sr.Pass {
		sr.Errors = append(sr.Errors, outcome.Result.Errors...)
		if len(sr.Errors) == 0 {
			sr.Errors = []string{failure}
		}
	}

	goldenPath := goldenFilePath(outcome.Path)
	if update {
		if err := updateGoldenFile(outcome.Scenario, outcome.Result, goldenPath); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return sr
	}

	match, err := compareWithGolden(outcome.Scenario, outcome.Result, goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No golden file - use assertion-based validation only
	case err != nil:
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	case !match:
		sr.Pass = false
		sr.Errors = append(sr.Errors, "answers do not match golden file (run with --update to regenerate)")
	}
	return sr
}

func printScenarioResult(formatter *OutputFormatter, sr ScenarioResult, update bool) {
	w := formatter.Writer
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(e, "\n"))
		}
		return
	}
	if update {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", sr.Name)
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current answers as the golden file.
func updateGoldenFile(name string, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.MarshalSnapshot(name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the result against the golden file. A missing
// file is returned as an fs.ErrNotExist error.
func compareWithGolden(name string, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, err
	}

	currentData, err := harness.MarshalSnapshot(name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal answers: %w", err)
	}

	return bytes.Equal(bytes.TrimSpace(goldenData), currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
