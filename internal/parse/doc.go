// Package parse reads the text syntax of prolly knowledge files and
// queries into term values.
//
// Clauses:
//
//	(mother, mary, alicia)
//	(likes, bob, cats) {trueness: 0.5}
//	(sibling, X, Y) if (parent, P, X) and (parent, P, Y)
//	(good, X) if (not, (bad, X))
//	tag trueness default 1 merge a, b => a * b
//
// Identifiers starting with an upper-case letter or '_' are variables.
// Numbers and quoted strings are atoms. The parser leaves variables
// unscoped; a Brain scopes them when the clause is added.
package parse
