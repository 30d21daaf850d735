package transform

import (
	"context"
	"errors"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/lazy"
	"github.com/specialistvlad/transformgrid/internal/node"
)

// KindInitial is the Kind of every InitialNode.
const KindInitial = "transform.InitialNode"

// InitialNode is the head of a chain. It applies its step to the subject
// materialized from a root artifact set.
type InitialNode struct {
	base
	artifacts ArtifactSet
}

var _ Node = (*InitialNode)(nil)

// Initial creates the head node of a chain. A nil ops records operations on
// the global tracer.
func Initial(seq *node.Sequence, step Step, artifacts ArtifactSet, deps DependenciesResolver, ops buildop.Executor) *InitialNode {
	n := &InitialNode{
		base:      newBase(seq, step, deps, ops),
		artifacts: artifacts,
	}
	n.result = lazy.New[*Subject](lazy.CalculationFunc[*Subject]{Name: n.String(), Fn: n.calculate})
	return n
}

func (n *InitialNode) ID() string { return nodeID(KindInitial, n.seq) }

func (n *InitialNode) Kind() string { return KindInitial }

func (n *InitialNode) InputArtifacts() ArtifactSet { return n.artifacts }

// ExecuteIfNotAlready prepares the step's parameters and runs the node if no
// one has yet.
func (n *InitialNode) ExecuteIfNotAlready(ctx context.Context) {
	n.step.IsolateParameters()
	n.result.CalculateNow(ctx, nil)
}

// ResolveDependencies reports the nodes needed by the step, the extra nodes
// computed for it, and the producers of the root artifacts.
func (n *InitialNode) ResolveDependencies(ctx context.Context, resolver node.DependencyResolver, onHardSuccessor func(node.Node)) error {
	if err := n.resolveStepDependencies(ctx, resolver, onHardSuccessor); err != nil {
		return err
	}
	return processDependencies(ctx, resolver, n.artifacts.TaskDependencies(), onHardSuccessor)
}

func (n *InitialNode) calculate(ctx context.Context, ec *node.ExecutionContext) (*Subject, error) {
	return n.runOperation(ctx, n, n.artifacts.DisplayName(), func(ctx context.Context) (*Subject, error) {
		subject, err := n.artifacts.CalculateSubject(ctx)
		if err != nil {
			var resolveErr *ResolveError
			if errors.As(err, &resolveErr) {
				return nil, err
			}
			return nil, NewResolveError(n.artifacts.DisplayName(), n.step.DisplayName(), CategoryArtifactTransform, err)
		}
		return n.step.CreateInvocation(subject, n.deps, ec).Invoke(ctx).Get()
	})
}
