// Package brain is the database of the inference engine.
//
// A Brain owns an ordered rule list, a special-term registry and the tag
// declarations, and answers queries against them:
//
//	b := brain.New()
//	_ = b.Add(term.NewFact(term.Tuple("mother", "mary", "alicia")))
//	for ans, err := range b.Query(ctx, term.Tuple("mother", "X", "alicia")) {
//		...
//	}
//
// Answers are plain ir values keyed by variable name, with merged tags
// under "tags". Duplicate answers from independent proofs are dropped;
// the first occurrence keeps its position.
//
// A Brain is not safe for concurrent use. Independent Brains share nothing.
package brain
