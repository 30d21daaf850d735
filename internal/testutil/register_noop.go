package testutil

import (
	"context"
	"reflect"

	"github.com/specialistvlad/transformgrid/internal/registry"
)

// NoOpModule registers a "noop" action that passes its input files through
// unchanged.
type NoOpModule struct{}

// Register implements the registry.Module interface.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterAction("noop", &registry.RegisteredAction{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		Fn: func(_ context.Context, _ *struct{}, req *registry.Request) ([]string, error) {
			return req.Files, nil
		},
	})
}
