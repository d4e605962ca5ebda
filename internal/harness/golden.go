package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/prolly/internal/ir"
)

// Snapshot captures every query outcome of a scenario execution.
// It serializes as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Queries      []QueryResult
}

// toCanonical converts the snapshot to an ir.Object. Answers keep stream
// order; the database yields them deterministically.
func (s *Snapshot) toCanonical() ir.Object {
	queries := make(ir.Array, len(s.Queries))
	for i, q := range s.Queries {
		answers := make(ir.Array, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = a.Object()
		}
		obj := ir.Object{
			"query":   ir.String(q.Query),
			"answers": answers,
		}
		if q.QueryID != "" {
			obj["query_id"] = ir.String(q.QueryID)
		}
		if q.ErrorCode != "" {
			obj["error_code"] = ir.String(q.ErrorCode)
		}
		queries[i] = obj
	}
	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"queries":       queries,
	}
}

// MarshalSnapshot renders a result as canonical JSON. Error messages are
// left out so snapshots survive wording changes; the codes stay.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snap := Snapshot{ScenarioName: name, Queries: result.Queries}
	return ir.MarshalCanonical(snap.toCanonical())
}

// RunWithGolden executes a scenario and compares its answers against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the answers don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
