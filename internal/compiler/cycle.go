package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/term"
)

// CycleWarning reports a group of mutually recursive predicates.
//
// Recursion is normal in a knowledge base (ancestor, reachability), so
// plain recursion is reported at level "info". Left recursion, where a rule
// calls its own group first, does not terminate under depth-first search
// unless the loop check is on, and is reported at level "warning".
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["ancestor/3", "ancestor/3"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles builds the predicate call graph of the clauses and reports
// every strongly connected component that is a cycle.
//
// The algorithm:
//  1. Add an edge from each rule head's predicate to each goal predicate
//     in its body (goals under negation included)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Goals whose functor is a variable can call anything and add no edge.
// A knowledge base without recursion returns an empty list.
func AnalyzeCycles(clauses []term.Clause) []CycleWarning {
	graph, leftEdges := buildCallGraph(clauses)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, leftEdges))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// callGraph maps a predicate key to the predicates its rules call.
type callGraph map[string][]string

type edge struct{ from, to string }

// PredicateKey names a goal by functor and arity, e.g. "parent/3".
// The second result is false when the functor is not an atom.
func PredicateKey(c *term.Compound) (string, bool) {
	f, ok := c.Functor()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/%d", f, c.Arity()), true
}

func buildCallGraph(clauses []term.Clause) (callGraph, map[edge]bool) {
	graph := make(callGraph)
	left := make(map[edge]bool)
	for _, c := range clauses {
		rule, ok := c.(*term.Rule)
		if !ok {
			continue
		}
		from, ok := PredicateKey(rule.Head)
		if !ok {
			continue
		}
		if graph[from] == nil {
			graph[from] = []string{}
		}
		for i, goal := range bodyGoals(rule.Body) {
			to, ok := PredicateKey(goal)
			if !ok {
				continue
			}
			if !slices.Contains(graph[from], to) {
				graph[from] = append(graph[from], to)
			}
			if i == 0 {
				left[edge{from, to}] = true
			}
		}
	}
	for node := range graph {
		slices.Sort(graph[node])
	}
	return graph, left
}

// bodyGoals flattens a rule body into its goal compounds. A negated goal
// contributes the goal under the negation.
func bodyGoals(body term.Term) []*term.Compound {
	switch b := body.(type) {
	case *term.Conjunction:
		var out []*term.Compound
		for _, g := range b.Goals {
			out = append(out, bodyGoals(g)...)
		}
		return out
	case *term.Compound:
		if f, ok := b.Functor(); ok && f == term.Str(engine.NotFunctor) && b.Arity() == 2 {
			return bodyGoals(b.Args[1])
		}
		return []*term.Compound{b}
	default:
		if c, ok := term.Unwrap(body); ok {
			return bodyGoals(c)
		}
		return nil
	}
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph callGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order so the result is deterministic.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph callGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph callGraph, left map[edge]bool) CycleWarning {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	level := "info"
	for e := range left {
		if members[e.from] && members[e.to] {
			level = "warning"
			break
		}
	}

	var path []string
	var msg string
	if len(scc) == 1 {
		path = []string{scc[0], scc[0]}
		msg = fmt.Sprintf("Recursive predicate: %s", scc[0])
	} else {
		path = reconstructCyclePath(scc, graph)
		msg = fmt.Sprintf("Mutually recursive predicates: %s", strings.Join(path, " → "))
	}
	if level == "warning" {
		msg += " (left-recursive; enable the loop check or reorder the body)"
	}
	return CycleWarning{Path: path, Message: msg, Level: level}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph callGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
