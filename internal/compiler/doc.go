// Package compiler loads knowledge bases from disk and checks them.
//
// Knowledge comes in two forms. Text files (.pl, .prolly, .kb) use the
// clause syntax of package parse. CUE packages declare tags, facts and
// rules as data and are compiled with the CUE SDK:
//
//	tags: trueness: {default: 1, merge: "a, b => a * b"}
//	facts: [["mother", "mary", "alicia"]]
//	rules: parent: {head: ["parent", "P", "C"], body: [["mother", "P", "C"]]}
//
// Load accepts any mix of files and directories and returns clauses in
// the order a Brain should add them. Validate and AnalyzeCycles report
// mistakes that loading accepts: goals no clause can prove, duplicate tag
// declarations and left recursion.
package compiler
