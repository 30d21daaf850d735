package print

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action.
type Input struct {
	// Label prefixes every logged line. Defaults to the subject name.
	Label string `hcl:"label,optional"`
}

// Run logs every input file with its size and passes the files through
// unchanged.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	label := input.Label
	if label == "" {
		label = req.Subject
	}

	for _, f := range req.Files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("inspecting %s: %w", filepath.Base(f), err)
		}
		logger.Info("📄 "+label, "file", filepath.Base(f), "bytes", info.Size())
	}
	if len(req.Files) == 0 {
		logger.Info("📄 "+label, "file", "(none)")
	}
	return req.Files, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
