package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineScenario = `name: inline
description: Facts given inline
clauses:
  - |
    (colour, sky, blue)
    (colour, grass, green)
queries:
  - query: (colour, sky, C)
    expect:
      - {C: blue}
`

// writeScenarioDir writes one scenario file into a fresh directory.
func writeScenarioDir(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return dir
}

func TestTest_AllPass(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ ancestor\n")
	assert.Contains(t, stdout, "✓ family\n")
	assert.Contains(t, stdout, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/scenarios", "--filter", "fam*", "--parallel", "1")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "ancestor")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_SingleFile(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/scenarios/family.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_Failure(t *testing.T) {
	failing := `name: wrong
description: Expects an answer the facts do not give
clauses:
  - (colour, sky, blue)
queries:
  - query: (colour, sky, C)
    expect:
      - {C: green}
`
	dir := writeScenarioDir(t, "wrong.yaml", failing)

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, "Assertion failed: queries[0]")
	assert.Contains(t, stdout, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTest_LoadFailure(t *testing.T) {
	dir := writeScenarioDir(t, "bad.yaml", "name: bad\nquerys: []\n")

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ bad.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_MissingPath(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestTest_NoScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}

func TestTest_GoldenUpdateThenCompare(t *testing.T) {
	dir := writeScenarioDir(t, "inline.yaml", inlineScenario)
	goldenPath := filepath.Join(dir, "golden", "inline.golden")

	stdout, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ inline (golden updated)")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"queries":[{"answers":[{"C":"blue"}],"query":"(colour, sky, C)","query_id":"inline-0001"}],"scenario_name":"inline"}`,
		string(data))

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err, "a fresh run reproduces the golden file")
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := writeScenarioDir(t, "inline.yaml", inlineScenario)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "inline.golden"), []byte(`{"queries":[]}`), 0644))

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "answers do not match golden file")
}

func TestTest_JSON(t *testing.T) {
	stdout, _, err := execute(t, "test", "testdata/scenarios", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "ancestor", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}
