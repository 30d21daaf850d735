package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the bundle action.
type Input struct {
	// Name is the bundle's file name.
	Name string `hcl:"name"`
}

// Run concatenates the input files, then the files of the needed chains,
// into a single file. Each part starts with a "==> name <==" line.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	out, err := req.Create(input.Name)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	parts := append(append([]string(nil), req.Files...), req.Needs...)
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := appendFile(out, p); err != nil {
			return nil, err
		}
	}
	return []string{out.Name()}, out.Close()
}

func appendFile(w io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	if _, err := fmt.Fprintf(w, "==> %s <==\n", filepath.Base(path)); err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("bundle", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
