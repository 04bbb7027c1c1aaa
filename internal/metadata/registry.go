package metadata

import (
	"fmt"
	"sync"
)

// Registry holds all entity descriptors. Populated once at process
// start and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register adds an entity descriptor. Registering the same name twice
// is an error.
func (r *Registry) Register(e *Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[e.Name]; exists {
		return fmt.Errorf("entity %q already registered", e.Name)
	}
	r.entities[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// Get returns the entity with the given name, or nil.
func (r *Registry) Get(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// All returns all registered entities in registration order.
func (r *Registry) All() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := make([]*Entity, 0, len(r.order))
	for _, name := range r.order {
		entities = append(entities, r.entities[name])
	}
	return entities
}
