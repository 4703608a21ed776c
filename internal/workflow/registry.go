package workflow

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps pattern types to handlers. Each orchestrator owns its own.
type Registry struct {
	handlers map[PatternType]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[PatternType]Handler),
	}
}

// Register binds h to its pattern, replacing any previous binding.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	if h.Pattern() == "" {
		return fmt.Errorf("handler pattern is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Pattern()] = h
	return nil
}

// RegisterAs binds h under an explicit pattern, which may differ from h.Pattern().
func (r *Registry) RegisterAs(p PatternType, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	if p == "" {
		return fmt.Errorf("pattern is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[p] = h
	return nil
}

// Get looks up the handler for p.
func (r *Registry) Get(p PatternType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[p]
	return h, ok
}

// Patterns lists the bound pattern types in sorted order.
func (r *Registry) Patterns() []PatternType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PatternType, 0, len(r.handlers))
	for p := range r.handlers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
