package stamp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the stamp action.
type Input struct {
	// Header is written at the top of every file. "{subject}" and "{file}"
	// are replaced with the subject name and the file's base name.
	Header string `hcl:"header"`
}

// Run copies every input file, prefixed with the header line.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	outputs := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header := strings.NewReplacer("{subject}", req.Subject, "{file}", filepath.Base(f)).Replace(input.Header)
		out, err := stampFile(f, header, req)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func stampFile(path, header string, req *registry.Request) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := req.Create(filepath.Base(path))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.WriteString(out, header+"\n"); err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return out.Name(), out.Close()
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("stamp", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
