package term

// VarSource hands out variables with fresh identities.
// engine.VarPool is the production implementation; each Database and each
// query owns one, so independent databases never share a counter.
type VarSource interface {
	NewVar(name string) Var
}

// Scope is the name→Var table of one clause or one query.
//
// Within a scope every occurrence of a name maps to the same Var, except
// the anonymous name "_", which is fresh at every occurrence.
type Scope struct {
	src   VarSource
	names map[string]Var
	order []Var
}

// NewScope creates an empty scope drawing fresh Vars from src.
func NewScope(src VarSource) *Scope {
	return &Scope{src: src, names: make(map[string]Var)}
}

// Lookup returns the canonical Var for name, creating it on first use.
func (s *Scope) Lookup(name string) Var {
	if name == Anonymous || name == "" {
		v := s.src.NewVar(name)
		s.order = append(s.order, v)
		return v
	}
	if v, ok := s.names[name]; ok {
		return v
	}
	v := s.src.NewVar(name)
	s.names[name] = v
	s.order = append(s.order, v)
	return v
}

// Vars returns the Vars created by this scope in creation order.
func (s *Scope) Vars() []Var {
	return s.order
}

// Named returns the Vars that are reachable by name, i.e. every Var the
// scope created except anonymous ones.
func (s *Scope) Named() map[string]Var {
	out := make(map[string]Var, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}
