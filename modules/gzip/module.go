package gzip

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/klauspost/compress/gzip"
	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the gzip action.
type Input struct {
	// Level is the compression level, 1 to 9. Defaults to gzip's default.
	Level *int `hcl:"level,optional"`
}

// Run compresses every input file to "<name>.gz".
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	level := gzip.DefaultCompression
	if input.Level != nil {
		level = *input.Level
		if level < gzip.BestSpeed || level > gzip.BestCompression {
			return nil, fmt.Errorf("level must be between %d and %d, got %d", gzip.BestSpeed, gzip.BestCompression, level)
		}
	}

	outputs := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := compress(f, req, level)
		if err != nil {
			return nil, fmt.Errorf("compressing %s: %w", filepath.Base(f), err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func compress(path string, req *registry.Request, level int) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := req.Create(filepath.Base(path) + ".gz")
	if err != nil {
		return "", err
	}
	defer out.Close()

	zw, err := gzip.NewWriterLevel(out, level)
	if err != nil {
		return "", err
	}
	zw.Name = filepath.Base(path)
	if _, err := io.Copy(zw, in); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return out.Name(), out.Close()
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("gzip", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
