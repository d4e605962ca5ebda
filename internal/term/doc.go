// Package term provides the value types of the prolly inference engine.
//
// This package contains the term model only. Every other internal package
// imports term; term imports nothing internal. Matching, merging and
// resolution live in package engine.
//
// Terms are tuples. The first element of a compound plays the role of the
// functor, so the fact "mary is the mother of alicia" is written
//
//	(mother, mary, alicia)
//
// and a goal may leave the functor open: (X, Y, alicia).
//
// Key constraints:
//   - Atoms compare by value; values of different kinds are never equal
//   - Var identity is the ID; the name is for display only
//   - Vars with ID 0 are unscoped and must be normalized through a Scope
//     before they take part in a proof
//   - Terms are never mutated after construction; Substitute and Normalize
//     return copies
package term
