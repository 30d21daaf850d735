package env_vars

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the env action.
type Input struct {
	// Keys lists the variables to record. Unset variables are skipped.
	Keys []string `hcl:"keys"`
	// Output is the name of the written file. Defaults to build.env.
	Output string `hcl:"output,optional"`
}

// Run records the listed environment variables as sorted KEY=VALUE lines
// and adds the file to the subject's files.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	name := input.Output
	if name == "" {
		name = "build.env"
	}
	out, err := req.Create(name)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	keys := slices.Sorted(slices.Values(input.Keys))
	for _, key := range slices.Compact(keys) {
		if strings.ContainsAny(key, "=\n") {
			return nil, fmt.Errorf("invalid variable name %q", key)
		}
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s=%s\n", key, value); err != nil {
			return nil, err
		}
	}

	return append(slices.Clone(req.Files), out.Name()), out.Close()
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("env", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
