package core

// Registry is the live set of sockets accepted by one room instance.
// It is not persisted and is rebuilt whenever the room is re-created.
type Registry struct {
	conns map[Conn]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[Conn]struct{})}
}

// Accept inserts a connection. Returns true if newly added.
func (r *Registry) Accept(c Conn) bool {
	if _, exists := r.conns[c]; exists {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

// Remove deletes a connection. Returns true if removed.
func (r *Registry) Remove(c Conn) bool {
	if _, exists := r.conns[c]; !exists {
		return false
	}
	delete(r.conns, c)
	return true
}

// Contains reports whether c is registered.
func (r *Registry) Contains(c Conn) bool {
	_, ok := r.conns[c]
	return ok
}

// All returns a snapshot of the current members in no particular order.
func (r *Registry) All() []Conn {
	out := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Len returns the number of members.
func (r *Registry) Len() int {
	return len(r.conns)
}
