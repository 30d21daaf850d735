package registry

import (
	"maps"
	"slices"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered actions for a single application instance.
type Registry struct {
	actions map[string]*RegisteredAction
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		actions: make(map[string]*RegisteredAction),
	}
}

// Action returns the action registered under name.
func (r *Registry) Action(name string) (*RegisteredAction, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.actions))
}
