// Package step binds a transform definition from the plan to the registered
// action that implements it.
package step

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/transformgrid/internal/config"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/specialistvlad/transformgrid/internal/result"
	"github.com/specialistvlad/transformgrid/internal/task"
	"github.com/specialistvlad/transformgrid/internal/transform"
)

// Step is a transform.Step backed by a registry action. Each position of a
// chain gets its own Step, with its own output directory.
type Step struct {
	def       *config.Transform
	action    *registry.RegisteredAction
	outputDir string

	isolate    sync.Once
	input      any
	isolateErr error
}

var _ transform.Step = (*Step)(nil)

// New returns a step that writes its outputs below outputDir.
func New(def *config.Transform, action *registry.RegisteredAction, outputDir string) *Step {
	return &Step{def: def, action: action, outputDir: outputDir}
}

func (s *Step) DisplayName() string { return s.def.Name }

func (s *Step) OwningProject() string { return s.def.Project }

func (s *Step) String() string { return s.def.Name }

// Action names the registered action.
func (s *Step) Action() string { return s.def.Action }

// TaskDependencies returns the tasks the step itself depends on.
func (s *Step) TaskDependencies() task.Refs { return task.Refs(s.def.DependsOn) }

// Needs returns the chains whose outputs the step reads.
func (s *Step) Needs() []string { return s.def.Needs }

// OutputDir returns the directory the step writes to.
func (s *Step) OutputDir() string { return s.outputDir }

// IsolateParameters decodes the arguments block into the action's input. It
// runs at most once; a decode failure is reported by every invocation.
func (s *Step) IsolateParameters() {
	s.isolate.Do(func() {
		input := s.action.NewInput()
		body := s.def.Arguments
		if body == nil {
			// Required attributes are still reported without a block.
			body = hcl.EmptyBody()
		}
		if diags := gohcl.DecodeBody(body, s.def.EvalContext, input); diags.HasErrors() {
			s.isolateErr = fmt.Errorf("invalid arguments for transform '%s': %w", s.def.Name, diags)
			return
		}
		s.input = input
	})
}

// CreateInvocation binds the step to subject.
func (s *Step) CreateInvocation(subject *transform.Subject, deps transform.DependenciesResolver, ec *node.ExecutionContext) transform.Invocation {
	return transform.InvocationFunc(func(ctx context.Context) result.Result[*transform.Subject] {
		logger := ctxlog.FromContext(ctx).With("transform", s.def.Name, "subject", subject.DisplayName())
		if ec != nil {
			logger = logger.With("workerID", ec.WorkerID)
		}

		s.IsolateParameters()
		if s.isolateErr != nil {
			return result.Failure[*transform.Subject](s.isolateErr)
		}

		needs, err := deps.ComputeArtifacts(ctx, s).Get()
		if err != nil {
			return result.Failure[*transform.Subject](fmt.Errorf("transform '%s' could not read the chains it needs: %w", s.def.Name, err))
		}

		if err := os.RemoveAll(s.outputDir); err != nil {
			return result.Failure[*transform.Subject](err)
		}
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return result.Failure[*transform.Subject](err)
		}

		logger.Debug("Invoking action.", "action", s.def.Action, "files", len(subject.Files()), "needs", len(needs))
		files, err := s.action.Invoke(ctx, s.input, &registry.Request{
			Subject:   subject.DisplayName(),
			Files:     subject.Files(),
			Needs:     needs,
			OutputDir: s.outputDir,
		})
		if err != nil {
			return result.Failure[*transform.Subject](fmt.Errorf("transform '%s' failed: %w", s.def.Name, err))
		}
		logger.Debug("Action finished.", "outputs", len(files))
		return result.Success(subject.Next(files))
	})
}
