// Package engine implements resolution over a list of rules.
//
// The engine is the heart of prolly: it unifies goals against rule heads,
// merges the resulting substitutions, and walks rule bodies depth-first,
// left to right, yielding one Solution per successful proof.
//
// ARCHITECTURE:
//
// Pull-Based Search:
// Every stage of the search is an iter.Seq2. No goroutines are started, so a
// consumer that stops pulling releases every open frame by ordinary return.
// This makes "first answer only" and "first N answers" cheap.
//
// Proof Steps:
//  1. A rule is instantiated with fresh Vars from the query's VarPool
//  2. Match(head, goal) yields candidate bindings lazily
//  3. A fact yields the goal's variables resolved through the binding
//  4. A rule body is substituted and solved recursively
//  5. Bindings from independent sub-proofs are combined by Merge; a
//     conflict drops that branch only
//
// Rules are tried in the order they were added. Within a conjunction goals
// are solved left to right. There is no reordering, no cut and no tabling.
//
// Termination:
// The engine does not guard against non-well-founded recursion unless the
// caller opts in: WithMaxDepth prunes deep branches, WithMaxSteps bounds the
// work per query, and WithLoopCheck prunes goals that repeat an ancestor up
// to variable renaming.
package engine
