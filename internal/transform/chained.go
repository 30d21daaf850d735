package transform

import (
	"context"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/lazy"
	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/result"
)

// KindChained is the Kind of every ChainedNode.
const KindChained = "transform.ChainedNode"

// ChainedNode applies its step to the output of the previous node in the
// chain.
type ChainedNode struct {
	base
	previous Node
}

var _ Node = (*ChainedNode)(nil)

// Chained creates a node that consumes previous. A nil ops records
// operations on the global tracer.
func Chained(seq *node.Sequence, step Step, previous Node, deps DependenciesResolver, ops buildop.Executor) *ChainedNode {
	n := &ChainedNode{
		base:     newBase(seq, step, deps, ops),
		previous: previous,
	}
	n.result = lazy.New[*Subject](lazy.CalculationFunc[*Subject]{Name: n.String(), Fn: n.calculate})
	return n
}

func (n *ChainedNode) ID() string { return nodeID(KindChained, n.seq) }

func (n *ChainedNode) Kind() string { return KindChained }

// Previous returns the node this one consumes.
func (n *ChainedNode) Previous() Node { return n.previous }

// InputArtifacts returns the root artifact set of the whole chain.
func (n *ChainedNode) InputArtifacts() ArtifactSet { return n.previous.InputArtifacts() }

// ExecuteIfNotAlready runs the chain up to and including this node.
func (n *ChainedNode) ExecuteIfNotAlready(ctx context.Context) {
	n.previous.ExecuteIfNotAlready(ctx)
	n.step.IsolateParameters()
	n.result.CalculateNow(ctx, nil)
}

// ResolveDependencies reports the nodes needed by the step, the extra nodes
// computed for it, and the previous node.
func (n *ChainedNode) ResolveDependencies(ctx context.Context, resolver node.DependencyResolver, onHardSuccessor func(node.Node)) error {
	if err := n.resolveStepDependencies(ctx, resolver, onHardSuccessor); err != nil {
		return err
	}
	onHardSuccessor(n.previous)
	return nil
}

func (n *ChainedNode) calculate(ctx context.Context, ec *node.ExecutionContext) (*Subject, error) {
	prev := n.previous.TransformedSubject()
	subjectName := result.Map(prev, (*Subject).DisplayName).OrMapFailure(func(err error) string {
		return err.Error()
	})
	return n.runOperation(ctx, n, subjectName, func(ctx context.Context) (*Subject, error) {
		return result.FlatMap(prev, func(subject *Subject) result.Result[*Subject] {
			return n.step.CreateInvocation(subject, n.deps, ec).Invoke(ctx)
		}).Get()
	})
}
