package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Results  []ScenarioOutcome `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioOutcome pairs a scenario file with its run result. Result is nil
// when the scenario could not be loaded or executed.
type ScenarioOutcome struct {
	Path     string  `json:"path"`
	Scenario string  `json:"scenario,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Path     string `json:"path"`
	Scenario string `json:"scenario,omitempty"`
	Error    string `json:"error"`
}

// RunAll loads and runs the scenario files concurrently, each on its own
// database, with at most parallel runs in flight (0 means unbounded).
// Outcomes keep the order of paths. A scenario that fails to load or run
// counts as failed; RunAll itself only fails when ctx is cancelled.
func RunAll(ctx context.Context, paths []string, parallel int, opts ...RunOption) (*SuiteResult, error) {
	outcomes := make([]ScenarioOutcome, len(paths))
	failures := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i].Path = path

			scenario, err := LoadScenario(path)
			if err != nil {
				failures[i] = fmt.Sprintf("failed to load scenario: %v", err)
				return nil
			}
			outcomes[i].Scenario = scenario.Name

			result, err := Run(gctx, scenario, opts...)
			if err != nil {
				failures[i] = fmt.Sprintf("scenario execution failed: %v", err)
				return nil
			}
			outcomes[i].Result = result
			if !result.Pass {
				failures[i] = fmt.Sprintf("scenario assertions failed: %v", result.Errors)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &SuiteResult{Total: len(paths), Results: outcomes}
	for i, msg := range failures {
		if msg == "" {
			summary.Passed++
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, ScenarioFailure{
			Path:     outcomes[i].Path,
			Scenario: outcomes[i].Scenario,
			Error:    msg,
		})
	}
	return summary, nil
}

// RunDir finds the scenarios under dir and runs them with RunAll.
func RunDir(ctx context.Context, dir string, parallel int, opts ...RunOption) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return RunAll(ctx, paths, parallel, opts...)
}
