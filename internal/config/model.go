package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of a plan.
type Model struct {
	Tasks      map[string]*Task
	Artifacts  map[string]*ArtifactSet
	Transforms map[string]*Transform
	// Chains keeps declaration order.
	Chains []*Chain
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Tasks:      make(map[string]*Task),
		Artifacts:  make(map[string]*ArtifactSet),
		Transforms: make(map[string]*Transform),
	}
}

// Task is a command producing files. Paths are absolute.
type Task struct {
	Name      string
	Command   []string
	Dir       string
	DependsOn []string
}

// ArtifactSet is a named group of local files. Paths are absolute.
type ArtifactSet struct {
	Name      string
	Files     []string
	DependsOn []string
}

// Transform is the definition of one transform step.
type Transform struct {
	// Action names the registered action implementing the step.
	Action  string
	Name    string
	Project string
	// DependsOn lists tasks the step itself needs to have run.
	DependsOn []string
	// Needs lists chains whose outputs the step reads.
	Needs []string
	// Arguments is decoded into the action's input when the step's
	// parameters are isolated. It may be nil.
	Arguments   hcl.Body
	EvalContext *hcl.EvalContext
}

// Chain applies a sequence of transforms to an artifact set.
type Chain struct {
	Name      string
	Artifacts string
	Steps     []string
}

// Chain returns the chain with the given name.
func (m *Model) Chain(name string) (*Chain, bool) {
	for _, c := range m.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Validate checks that every reference in the model resolves.
func (m *Model) Validate() error {
	var errs []error
	checkTasks := func(owner string, names []string) {
		for _, name := range names {
			if _, ok := m.Tasks[name]; !ok {
				errs = append(errs, fmt.Errorf("%s depends on unknown task '%s'", owner, name))
			}
		}
	}

	for _, t := range m.Tasks {
		if len(t.Command) == 0 {
			errs = append(errs, fmt.Errorf("task '%s' has an empty command", t.Name))
		}
		checkTasks(fmt.Sprintf("task '%s'", t.Name), t.DependsOn)
	}
	for _, a := range m.Artifacts {
		checkTasks(fmt.Sprintf("artifacts '%s'", a.Name), a.DependsOn)
	}
	for _, tr := range m.Transforms {
		owner := fmt.Sprintf("transform '%s'", tr.Name)
		checkTasks(owner, tr.DependsOn)
		for _, need := range tr.Needs {
			if _, ok := m.Chain(need); !ok {
				errs = append(errs, fmt.Errorf("%s needs unknown chain '%s'", owner, need))
			}
		}
	}

	seen := make(map[string]bool)
	for _, c := range m.Chains {
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("chain '%s' is declared more than once", c.Name))
		}
		seen[c.Name] = true
		if _, ok := m.Artifacts[c.Artifacts]; !ok {
			errs = append(errs, fmt.Errorf("chain '%s' uses unknown artifacts '%s'", c.Name, c.Artifacts))
		}
		if len(c.Steps) == 0 {
			errs = append(errs, fmt.Errorf("chain '%s' has no steps", c.Name))
		}
		for _, s := range c.Steps {
			if _, ok := m.Transforms[s]; !ok {
				errs = append(errs, fmt.Errorf("chain '%s' uses unknown transform '%s'", c.Name, s))
			}
		}
	}
	return errors.Join(errs...)
}
