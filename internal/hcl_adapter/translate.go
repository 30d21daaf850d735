package hcl_adapter

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/transformgrid/internal/config"
)

// Task represents a `task` block.
type Task struct {
	Name      string   `hcl:"name,label"`
	Command   []string `hcl:"command"`
	Dir       string   `hcl:"dir,optional"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// Artifacts represents an `artifacts` block.
type Artifacts struct {
	Name      string   `hcl:"name,label"`
	Files     []string `hcl:"files"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// Transform represents a `transform` block.
type Transform struct {
	Action    string     `hcl:"action,label"`
	Name      string     `hcl:"name,label"`
	Project   string     `hcl:"project,optional"`
	DependsOn []string   `hcl:"depends_on,optional"`
	Needs     []string   `hcl:"needs,optional"`
	Arguments *Arguments `hcl:"arguments,block"`
}

// Arguments holds the raw `arguments` block of a transform. It is decoded
// later, against the input type of the transform's action.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Chain represents a `chain` block.
type Chain struct {
	Name      string   `hcl:"name,label"`
	Artifacts string   `hcl:"artifacts"`
	Steps     []string `hcl:"steps"`
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// merge translates one decoded file into the model.
func merge(model *config.Model, root *fileRoot, dir string, evalCtx *hcl.EvalContext) error {
	for _, t := range root.Tasks {
		if _, dup := model.Tasks[t.Name]; dup {
			return fmt.Errorf("task '%s' is declared more than once", t.Name)
		}
		taskDir := dir
		if t.Dir != "" {
			taskDir = resolvePath(dir, t.Dir)
		}
		model.Tasks[t.Name] = &config.Task{
			Name:      t.Name,
			Command:   t.Command,
			Dir:       taskDir,
			DependsOn: t.DependsOn,
		}
	}

	for _, a := range root.Artifacts {
		if _, dup := model.Artifacts[a.Name]; dup {
			return fmt.Errorf("artifacts '%s' is declared more than once", a.Name)
		}
		files := make([]string, len(a.Files))
		for i, f := range a.Files {
			files[i] = resolvePath(dir, f)
		}
		model.Artifacts[a.Name] = &config.ArtifactSet{
			Name:      a.Name,
			Files:     files,
			DependsOn: a.DependsOn,
		}
	}

	for _, tr := range root.Transforms {
		if _, dup := model.Transforms[tr.Name]; dup {
			return fmt.Errorf("transform '%s' is declared more than once", tr.Name)
		}
		def := &config.Transform{
			Action:      tr.Action,
			Name:        tr.Name,
			Project:     tr.Project,
			DependsOn:   tr.DependsOn,
			Needs:       tr.Needs,
			EvalContext: evalCtx,
		}
		if tr.Arguments != nil {
			def.Arguments = tr.Arguments.Body
		}
		model.Transforms[tr.Name] = def
	}

	for _, c := range root.Chains {
		model.Chains = append(model.Chains, &config.Chain{
			Name:      c.Name,
			Artifacts: c.Artifacts,
			Steps:     c.Steps,
		})
	}
	return nil
}
