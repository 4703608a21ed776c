package provider

import (
	"fmt"
	"sync"
)

// Registry is an ordered Client. Providers keep the order they were added in.
type Registry struct {
	providers []Provider
	mu        sync.RWMutex
}

// NewRegistry creates a registry with the given providers, in order
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

// Add appends a provider. Names must be unique.
func (r *Registry) Add(p Provider) error {
	if p == nil {
		return fmt.Errorf("provider is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.providers {
		if existing.Name() == p.Name() {
			return fmt.Errorf("provider '%s' already registered", p.Name())
		}
	}
	r.providers = append(r.providers, p)
	return nil
}

// Providers returns a copy of the ordered provider list
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("provider '%s' not found", name)
}
