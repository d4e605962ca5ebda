package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario loads a knowledge base into a fresh database, runs queries
// against it and checks the answers each query produces.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Knowledge lists knowledge files or directories to load, in order.
	// Paths are relative to the scenario file location.
	Knowledge []string `yaml:"knowledge,omitempty"`

	// Clauses holds inline program text, loaded after Knowledge.
	// Each entry may contain several statements.
	Clauses []string `yaml:"clauses,omitempty"`

	// Options sets resolver limits for every query in the scenario.
	Options Options `yaml:"options,omitempty"`

	// Queries run in order against the same database.
	Queries []QueryCase `yaml:"queries"`

	// QueryIDPrefix fixes the query IDs ("<prefix>-0001", ...) so logs and
	// snapshots are reproducible. Defaults to the scenario name.
	QueryIDPrefix string `yaml:"query_id_prefix,omitempty"`
}

// Options are the opt-in resolver limits. Zero means unlimited.
type Options struct {
	MaxDepth  int  `yaml:"max_depth,omitempty"`
	MaxSteps  int  `yaml:"max_steps,omitempty"`
	LoopCheck bool `yaml:"loop_check,omitempty"`
}

// QueryCase is one query with its expectations.
type QueryCase struct {
	// Query is the goal in text syntax, e.g. "(parent, X, alicia)".
	Query string `yaml:"query"`

	// Limit stops the answer stream after N answers. 0 means all.
	Limit int `yaml:"limit,omitempty"`

	// Expect lists the expected answers. Keys are variable names; the
	// reserved key "tags" holds the merged tags. An empty map is an answer
	// without variables. Unbound variables are written {$var: Name}.
	Expect []map[string]any `yaml:"expect,omitempty"`

	// Match selects how Expect is compared:
	// - "set" (default): same answers, any order
	// - "ordered": same answers, same order
	// - "subset": every expected answer appears
	Match string `yaml:"match,omitempty"`

	// Count is the expected number of answers, when set.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error code (see ErrorCode). When set, the
	// query must fail with it; answers seen before the error still count.
	Error string `yaml:"error,omitempty"`
}

// Match mode constants.
const (
	MatchSet     = "set"
	MatchOrdered = "ordered"
	MatchSubset  = "subset"
)

// ScenarioExtensions are the file extensions FindScenarios picks up.
var ScenarioExtensions = []string{".yaml", ".yml"}

// LoadScenario reads and parses a scenario YAML file.
// Knowledge paths resolve relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving knowledge paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve knowledge paths relative to base path BEFORE validation
	for i, p := range scenario.Knowledge {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Knowledge[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or checking paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "querys:" vs "queries:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns scenario files under dir in lexical order.
// A file path is returned as is.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// testdata/golden holds snapshots, not scenarios
			if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "golden") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(ScenarioExtensions, filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Knowledge) == 0 && len(s.Clauses) == 0 {
		return fmt.Errorf("knowledge or clauses is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for _, p := range s.Knowledge {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("knowledge file not found: %s", p)
		}
	}

	if s.Options.MaxDepth < 0 {
		return fmt.Errorf("options.max_depth must be non-negative")
	}
	if s.Options.MaxSteps < 0 {
		return fmt.Errorf("options.max_steps must be non-negative")
	}

	for i := range s.Queries {
		if err := validateQuery(i, &s.Queries[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateQuery validates a single query case.
func validateQuery(index int, q *QueryCase) error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("queries[%d]: query is required", index)
	}

	switch q.Match {
	case "", MatchSet, MatchOrdered, MatchSubset:
	default:
		return fmt.Errorf("queries[%d]: unknown match mode %q", index, q.Match)
	}

	if q.Limit < 0 {
		return fmt.Errorf("queries[%d]: limit must be non-negative", index)
	}

	if q.Count != nil {
		if *q.Count < 0 {
			return fmt.Errorf("queries[%d]: count must be non-negative", index)
		}
		if q.Match != MatchSubset && q.Expect != nil && len(q.Expect) != *q.Count {
			return fmt.Errorf("queries[%d]: count %d contradicts %d expected answers", index, *q.Count, len(q.Expect))
		}
	}

	if q.Expect == nil && q.Count == nil && q.Error == "" {
		return fmt.Errorf("queries[%d]: expect, count or error is required", index)
	}
	return nil
}
