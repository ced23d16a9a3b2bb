// Package supermesh aggregates the meshes of many SRC assets under one shared
// object id space and one shared set of per-object parameters.
package supermesh

import "sync"

// Registry is the append-only table of persistent object ids. The index an
// id receives on first insertion is its global id and never changes.
//
// Registry is safe for concurrent use; decodes running in parallel only
// serialize on insertion of names not seen before.
type Registry struct {
	mu    sync.RWMutex
	names []string
	index map[string]uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]uint32),
	}
}

// Add returns the global id of name, inserting it if needed.
func (r *Registry) Add(name string) uint32 {
	r.mu.RLock()
	id, ok := r.index[name]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.index[name]; ok {
		return id
	}
	id = uint32(len(r.names))
	r.names = append(r.names, name)
	r.index[name] = id
	return id
}

// Find returns the global id of name without inserting it.
func (r *Registry) Find(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.index[name]
	return id, ok
}

// Name returns the object id registered under a global id.
func (r *Registry) Name(id uint32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// Len returns the number of distinct names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Names returns a copy of all names in global id order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
