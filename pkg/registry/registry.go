// Package registry maps perform handler names, as used in action definition files,
// to Go functions.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/palette/pkg/domain"
)

// HandlerFunc defines the signature for a named perform handler.
// It receives the selected node and the args declared next to it in the spec.
type HandlerFunc func(ctx context.Context, node domain.ActionNode, args map[string]any) error

// Registry manages the available handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler to the registry.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a handler by name and runs it.
// Returns an error wrapping domain.ErrHandlerNotFound if the handler is not found.
func (r *Registry) Execute(ctx context.Context, name string, node domain.ActionNode, args map[string]any) error {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrHandlerNotFound, name)
	}
	return fn(ctx, node, args)
}

// Resolve turns a spec's perform name into a Perform. An empty name yields a Group.
// The lookup happens at perform time, so handlers registered later still apply.
func (r *Registry) Resolve(name string, args map[string]any) (domain.Perform, error) {
	if name == "" {
		return domain.Group{}, nil
	}
	if !r.Has(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrHandlerNotFound, name)
	}
	return domain.Invoke{Run: func(ctx context.Context, node domain.ActionNode) error {
		return r.Execute(ctx, name, node, args)
	}}, nil
}
