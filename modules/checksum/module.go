package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the checksum action.
type Input struct {
	// Algorithm is one of sha256 (default), sha1, md5, xxhash.
	Algorithm string `hcl:"algorithm,optional"`
	// Output is the name of the sums file. Defaults to SUMS.
	Output string `hcl:"output,optional"`
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	case "xxhash":
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm '%s'", algorithm)
	}
}

// Run writes one "<digest>  <file name>" line per input file.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if _, err := newHash(input.Algorithm); err != nil {
		return nil, err
	}

	name := input.Output
	if name == "" {
		name = "SUMS"
	}
	out, err := req.Create(name)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	for _, f := range req.Files {
		h, _ := newHash(input.Algorithm)
		if err := hashFile(h, f); err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", hex.EncodeToString(h.Sum(nil)), filepath.Base(f)); err != nil {
			return nil, err
		}
	}
	logger.Debug("Checksums written.", "file", out.Name(), "count", len(req.Files))
	return []string{out.Name()}, out.Close()
}

func hashFile(h hash.Hash, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(h, f)
	return err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("checksum", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
