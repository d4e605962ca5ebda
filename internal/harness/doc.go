// Package harness runs YAML conformance scenarios against a prolly database.
//
// A scenario loads a knowledge base into a fresh database, runs queries
// and checks each query's answers, answer count and error code.
//
// # Scenario Format
//
//	name: family
//	description: "Parent and sibling rules over a small family"
//	knowledge:
//	  - family.pl          # relative to the scenario file
//	clauses:
//	  - |
//	    (sibling, X, Y) if (parent, P, X) and (parent, P, Y)
//	options:
//	  max_steps: 10000
//	queries:
//	  - query: (parent, X, alicia)
//	    expect:
//	      - {X: mary}
//	      - {X: joseph}
//	  - query: (mother, mary, gonzo)
//	    count: 0
//	  - query: (loop, X)
//	    error: QUOTA_EXCEEDED
//
// Expected answers map variable names to values. The reserved key "tags"
// holds merged tags, e.g. {X: cats, tags: {trueness: 0.5}}. Values compare
// exactly: 1 and 1.0 are different answers.
//
// # Match Modes
//
//   - set (default): the same answers in any order
//   - ordered: the same answers in proof order
//   - subset: every expected answer appears among the answers
//
// # Deterministic Testing
//
// Query IDs come from testutil.SequentialIDs, prefixed with the scenario
// name, so logs and golden snapshots are identical across runs.
// RunWithGolden stores snapshots in testdata/golden/{name}.golden.
//
// RunAll runs many scenario files concurrently, each on its own database.
package harness
