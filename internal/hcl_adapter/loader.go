// Package hcl_adapter loads plans written in HCL into the format-agnostic
// config.Model.
package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/transformgrid/internal/config"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` object visible to plan expressions.
	// Defaults to os.Environ.
	Environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL plan loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Tasks      []*Task      `hcl:"task,block"`
	Artifacts  []*Artifacts `hcl:"artifacts,block"`
	Transforms []*Transform `hcl:"transform,block"`
	Chains     []*Chain     `hcl:"chain,block"`
}

// Load parses every .hcl file under paths and merges the blocks into one
// model. Relative paths inside a file resolve against that file's directory.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	evalCtx := l.evalContext()
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := merge(model, &root, filepath.Dir(file), evalCtx); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	logger.Debug("HCL loading complete.", "tasks", len(model.Tasks), "artifacts", len(model.Artifacts), "transforms", len(model.Transforms), "chains", len(model.Chains))
	return model, nil
}

// evalContext exposes the process environment as `env`.
func (l *Loader) evalContext() *hcl.EvalContext {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	vars := make(map[string]cty.Value)
	for _, kv := range environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if i > 0 {
					vars[kv[:i]] = cty.StringVal(kv[i+1:])
				}
				break
			}
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			allFiles = append(allFiles, files...)
		} else if filepath.Ext(path) == ".hcl" {
			allFiles = append(allFiles, path)
		}
	}
	for i, f := range allFiles {
		if abs, err := filepath.Abs(f); err == nil {
			allFiles[i] = abs
		}
	}
	slices.Sort(allFiles)
	return slices.Compact(allFiles), nil
}
