package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
)

// Request is what an action receives besides its decoded arguments.
type Request struct {
	// Subject names the artifacts being transformed.
	Subject string
	// Files are the input files of the step.
	Files []string
	// Needs are the output files of the chains the step needs.
	Needs []string
	// OutputDir is an empty directory reserved for this step's outputs.
	OutputDir string
}

// RegisteredAction holds the compiled Go parts of a transform action.
//
// Fn must have the signature
//
//	func(ctx context.Context, input *In, req *Request) ([]string, error)
//
// where *In is the type returned by NewInput. The returned slice lists the
// files the action produced.
type RegisteredAction struct {
	NewInput  func() any
	InputType reflect.Type
	Fn        any
}

// RegisterAction registers the Go function for an action.
func (r *Registry) RegisterAction(name string, action *RegisteredAction) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action.", "name", name)
	r.actions[name] = action
}

// Invoke calls the action's function.
func (a *RegisteredAction) Invoke(ctx context.Context, input any, req *Request) ([]string, error) {
	results := reflect.ValueOf(a.Fn).Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(input),
		reflect.ValueOf(req),
	})
	files, _ := results[0].Interface().([]string)
	if errResult := results[1].Interface(); errResult != nil {
		return files, errResult.(error)
	}
	return files, nil
}

// Create creates name inside OutputDir. It fails if an earlier output of the
// same invocation already used that name.
func (r *Request) Create(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(r.OutputDir, filepath.Base(name)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}
