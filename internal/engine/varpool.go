package engine

import (
	"sync/atomic"

	"github.com/roach88/prolly/internal/term"
)

// VarPool hands out Vars with strictly increasing IDs.
//
// Each Database owns one pool for normalizing its rules, and each query
// owns one seeded past the Database's counter, so no two independent
// databases share variable state and queries never collide with rule
// templates.
//
// Thread-safety: VarPool is safe for concurrent use (atomic operations),
// though resolution itself is single-threaded.
type VarPool struct {
	seq atomic.Uint64
}

// NewVarPool creates a pool whose first Var has ID 1.
func NewVarPool() *VarPool {
	return &VarPool{}
}

// NewVarPoolAt creates a pool that continues after start.
func NewVarPoolAt(start uint64) *VarPool {
	p := &VarPool{}
	p.seq.Store(start)
	return p
}

// NewVar returns a Var with a fresh ID and the given display name.
func (p *VarPool) NewVar(name string) term.Var {
	return term.Var{ID: p.seq.Add(1), Name: name}
}

// Current returns the last ID handed out.
func (p *VarPool) Current() uint64 {
	return p.seq.Load()
}
