package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable query IDs for tests: "q-0001",
// "q-0002", and so on.
//
// Unlike engine.FixedGenerator it never runs out, so a scenario may issue
// any number of queries and still produce byte-identical logs and
// snapshots across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDs creates a generator starting at 0. An empty prefix
// defaults to "q".
//
// The first call to Generate() returns "<prefix>-0001".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "q"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate increments the counter and returns the next ID.
//
// Implements engine.QueryIDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Current returns how many IDs have been generated.
func (g *SequentialIDs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. After Reset(), Generate() returns
// "<prefix>-0001" again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
