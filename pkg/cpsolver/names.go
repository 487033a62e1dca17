package cpsolver

import "fmt"

// Named is implemented by any propagation object (variable, constraint,
// ...) that wants solver-managed naming. BaseName is the anonymous-mode
// prefix ("IntVar", "AllDifferent", ...); a blank BaseName opts out of
// lazy anonymous naming.
type Named interface {
	Handle() Handle
	BaseName() string
}

// nameRegistry keys names by a solver-owned Handle rather than a raw
// pointer: identity-hashing a real address, as the original does,
// doesn't translate to a language with a moving garbage collector
// (spec.md §9, "pointer-keyed maps").
type nameRegistry struct {
	next  Handle
	names map[Handle]string
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{names: make(map[Handle]string)}
}

func (r *nameRegistry) newHandle() Handle {
	r.next++
	return r.next
}

// GetName returns obj's stored name, or lazily mints one from its
// BaseName when NameAllVariables is enabled and none was set.
func (s *Solver) GetName(obj Named) string {
	if name, ok := s.names.names[obj.Handle()]; ok {
		return name
	}
	if s.params.NameAllVariables && obj.BaseName() != "" {
		name := fmt.Sprintf("%s_%d", obj.BaseName(), s.anonymousIndex)
		s.anonymousIndex++
		s.names.names[obj.Handle()] = name
		return name
	}
	return ""
}

// SetName records name for obj, unless StoreNames is disabled.
func (s *Solver) SetName(obj Named, name string) {
	if s.params.StoreNames && s.GetName(obj) != name {
		s.names.names[obj.Handle()] = name
	}
}

// HasName reports whether obj has an explicit or anonymous-mode name.
func (s *Solver) HasName(obj Named) bool {
	if _, ok := s.names.names[obj.Handle()]; ok {
		return true
	}
	return obj.BaseName() != "" && s.params.NameAllVariables
}

// NewHandle mints a fresh, solver-owned handle for a propagation object.
func (s *Solver) NewHandle() Handle { return s.names.newHandle() }
