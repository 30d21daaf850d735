package testutil

import "github.com/specialistvlad/transformgrid/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single action.
type SimpleModule struct {
	Name   string
	Action *registry.RegisteredAction
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Name != "" && m.Action != nil {
		r.RegisterAction(m.Name, m.Action)
	}
}
