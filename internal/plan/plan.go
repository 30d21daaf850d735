// Package plan turns a config.Model into an execution graph.
//
// Every node of a plan takes its number from one node.Sequence owned by the
// plan, so node.Compare orders nodes by creation within a plan and two plans
// never share a counter. Tasks are created first, in name order, then the
// nodes of each chain in declaration order.
package plan

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/artifact"
	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/config"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/dag"
	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/specialistvlad/transformgrid/internal/result"
	"github.com/specialistvlad/transformgrid/internal/step"
	"github.com/specialistvlad/transformgrid/internal/task"
	"github.com/specialistvlad/transformgrid/internal/transform"
)

var (
	// ErrUnknownTask is returned when a dependency names a task that is not
	// part of the plan.
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownChain is returned when a transform needs a chain that is not
	// part of the plan.
	ErrUnknownChain = errors.New("unknown chain")
	// ErrUnknownAction is returned when a transform uses an action that is
	// not registered.
	ErrUnknownAction = errors.New("unknown action")
)

// Options configures Build.
type Options struct {
	Registry *registry.Registry
	// OutputDir is the root of all step outputs.
	OutputDir string
	// Operations runs the build operations of every node. Nil records them
	// on the global tracer.
	Operations buildop.Executor
}

// Chain is the list of transformation nodes built for one chain block.
type Chain struct {
	Name      string
	Artifacts transform.ArtifactSet
	Nodes     []transform.Node
}

// Final returns the last node of the chain.
func (c *Chain) Final() transform.Node {
	return c.Nodes[len(c.Nodes)-1]
}

// Result returns the captured outcome of the chain's last node.
func (c *Chain) Result() result.Result[*transform.Subject] {
	return c.Final().TransformedSubject()
}

// Plan is a built execution graph plus the handles needed to report on it.
type Plan struct {
	Graph  *dag.Graph
	Chains []*Chain
	Tasks  map[string]*task.Node

	chains map[string]*Chain
}

// chainRefs names chains whose final nodes a step needs.
type chainRefs []string

// Build creates every node of the model, resolves their dependencies into
// graph edges and checks the graph for cycles.
func Build(ctx context.Context, model *config.Model, opts Options) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	seq := node.NewSequence()

	p := &Plan{
		Graph:  dag.New(),
		Tasks:  make(map[string]*task.Node, len(model.Tasks)),
		chains: make(map[string]*Chain, len(model.Chains)),
	}

	for _, name := range slices.Sorted(maps.Keys(model.Tasks)) {
		t := model.Tasks[name]
		p.Tasks[name] = task.New(seq, t.Name, t.Command, t.Dir, t.DependsOn, opts.Operations)
	}

	deps := &chainArtifacts{plan: p}
	for _, c := range model.Chains {
		set, ok := model.Artifacts[c.Artifacts]
		if !ok {
			return nil, fmt.Errorf("chain '%s': unknown artifacts '%s'", c.Name, c.Artifacts)
		}
		chain := &Chain{
			Name:      c.Name,
			Artifacts: artifact.NewSet(set.Name, set.Files, set.DependsOn),
		}
		for i, stepName := range c.Steps {
			def, ok := model.Transforms[stepName]
			if !ok {
				return nil, fmt.Errorf("chain '%s': unknown transform '%s'", c.Name, stepName)
			}
			action, ok := opts.Registry.Action(def.Action)
			if !ok {
				return nil, fmt.Errorf("transform '%s' uses %w '%s' (registered: %s)", def.Name, ErrUnknownAction, def.Action, strings.Join(opts.Registry.Names(), ", "))
			}
			st := step.New(def, action, filepath.Join(opts.OutputDir, c.Name, fmt.Sprintf("%d-%s", i, stepName)))

			var n transform.Node
			if i == 0 {
				n = transform.Initial(seq, st, chain.Artifacts, deps, opts.Operations)
			} else {
				n = transform.Chained(seq, st, chain.Nodes[i-1], deps, opts.Operations)
			}
			chain.Nodes = append(chain.Nodes, n)
		}
		if len(chain.Nodes) == 0 {
			return nil, fmt.Errorf("chain '%s' has no steps", c.Name)
		}
		p.Chains = append(p.Chains, chain)
		p.chains[c.Name] = chain
	}

	if err := p.resolve(ctx); err != nil {
		return nil, err
	}
	if err := p.Graph.DetectCycles(); err != nil {
		return nil, err
	}

	logger.Debug("Plan built.", "tasks", len(p.Tasks), "chains", len(p.Chains), "nodes", p.Graph.Len())
	return p, nil
}

// Chain returns the chain with the given name.
func (p *Plan) Chain(name string) (*Chain, bool) {
	c, ok := p.chains[name]
	return c, ok
}

// resolve adds every node to the graph, then asks each node for its hard
// successors and records one edge per reported dependency. Nodes reported
// as dependencies that were not yet in the graph are resolved in turn.
func (p *Plan) resolve(ctx context.Context) error {
	var queue []node.Node
	for _, name := range slices.Sorted(maps.Keys(p.Tasks)) {
		queue = append(queue, p.Tasks[name])
	}
	for _, c := range p.Chains {
		for _, n := range c.Nodes {
			queue = append(queue, n)
		}
	}
	for _, n := range queue {
		p.Graph.AddNode(n)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		var edgeErr error
		err := n.ResolveDependencies(ctx, p, func(dep node.Node) {
			if p.Graph.AddNode(dep) {
				queue = append(queue, dep)
			}
			if err := p.Graph.AddEdge(dep.ID(), n.ID()); err != nil && edgeErr == nil {
				edgeErr = fmt.Errorf("%s depends on itself: %w", n, err)
			}
		})
		if err != nil {
			return err
		}
		if edgeErr != nil {
			return edgeErr
		}
	}
	return nil
}

// ResolveDependenciesFor maps a dependency descriptor to graph nodes.
func (p *Plan) ResolveDependenciesFor(ctx context.Context, target any) ([]node.Node, error) {
	switch t := target.(type) {
	case nil:
		return nil, nil
	case task.Refs:
		out := make([]node.Node, 0, len(t))
		for _, name := range t {
			n, ok := p.Tasks[name]
			if !ok {
				return nil, fmt.Errorf("%w '%s'", ErrUnknownTask, name)
			}
			out = append(out, n)
		}
		return out, nil
	case *step.Step:
		return p.ResolveDependenciesFor(ctx, t.TaskDependencies())
	case chainRefs:
		out := make([]node.Node, 0, len(t))
		for _, name := range t {
			c, ok := p.chains[name]
			if !ok {
				return nil, fmt.Errorf("%w '%s'", ErrUnknownChain, name)
			}
			out = append(out, c.Final())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported dependency target %T", target)
	}
}

// chainArtifacts gives steps access to the outputs of the chains they need.
type chainArtifacts struct {
	plan *Plan
}

type needer interface {
	Needs() []string
}

func (d *chainArtifacts) ComputeDependencyNodes(s transform.Step) any {
	if n, ok := s.(needer); ok && len(n.Needs()) > 0 {
		return chainRefs(n.Needs())
	}
	return nil
}

// ComputeArtifacts returns the files of every needed chain. The first failed
// chain fails the whole computation.
func (d *chainArtifacts) ComputeArtifacts(_ context.Context, s transform.Step) result.Result[[]string] {
	n, ok := s.(needer)
	if !ok {
		return result.Success[[]string](nil)
	}
	var files []string
	for _, name := range n.Needs() {
		c, ok := d.plan.chains[name]
		if !ok {
			return result.Failure[[]string](fmt.Errorf("%w '%s'", ErrUnknownChain, name))
		}
		subject, err := c.Result().Get()
		if err != nil {
			return result.Failure[[]string](fmt.Errorf("chain '%s': %w", name, err))
		}
		files = append(files, subject.Files()...)
	}
	return result.Success(files)
}
