package transition

import (
	"fmt"
	"sync"
)

// Registry maps names to guards, hooks and actions so transitions can be
// declared in configuration and resolved to Go callables at build time.
// Applications register their own callables before building definitions.
type Registry[S comparable] struct {
	mu      sync.RWMutex
	guards  map[string]Guard[S]
	hooks   map[string]Hook[S]
	actions map[string]Action[S]
}

// NewRegistry creates an empty registry.
func NewRegistry[S comparable]() *Registry[S] {
	return &Registry[S]{
		guards:  make(map[string]Guard[S]),
		hooks:   make(map[string]Hook[S]),
		actions: make(map[string]Action[S]),
	}
}

// RegisterGuard registers a guard under name, replacing any previous one.
func (r *Registry[S]) RegisterGuard(name string, fn Guard[S]) *Registry[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.guards[name] = fn

	return r
}

// RegisterHook registers a hook under name, replacing any previous one.
// The same hook may be referenced as enter, exit, before or after.
func (r *Registry[S]) RegisterHook(name string, fn Hook[S]) *Registry[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks[name] = fn

	return r
}

// RegisterAction registers an action under name, replacing any previous one.
func (r *Registry[S]) RegisterAction(name string, fn Action[S]) *Registry[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[name] = fn

	return r
}

// Guard looks up a guard. An empty name resolves to nil (always allow).
func (r *Registry[S]) Guard(name string) (Guard[S], error) {
	if name == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.guards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGuard, name)
	}

	return fn, nil
}

// Hook looks up a hook. An empty name resolves to nil (no-op).
func (r *Registry[S]) Hook(name string) (Hook[S], error) {
	if name == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.hooks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}

	return fn, nil
}

// Action looks up an action. An empty name resolves to nil (no-op).
func (r *Registry[S]) Action(name string) (Action[S], error) {
	if name == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	return fn, nil
}
