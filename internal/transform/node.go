// Package transform implements the graph nodes that apply a chain of
// transform steps to a root artifact set.
//
// A chain is a linked list of nodes. The head is an InitialNode, which reads
// its input from an ArtifactSet; every later link is a ChainedNode, which
// reads its input from the previous node's memoized result. Each node runs
// its step at most once, even when the result is requested concurrently by
// the executor and by a downstream consumer.
package transform

import (
	"context"
	"fmt"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/lazy"
	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/result"
)

// Node is a transformation node. The set of implementations is closed:
// every Node is either an *InitialNode or a *ChainedNode.
type Node interface {
	node.Node

	Step() Step
	DependenciesResolver() DependenciesResolver
	// InputArtifacts returns the root artifact set of the chain.
	InputArtifacts() ArtifactSet
	// TransformedSubject returns the stored result without running the
	// step. It is only meaningful after the node has executed.
	TransformedSubject() result.Result[*Subject]
	// ExecuteIfNotAlready runs the node, and the chain before it, outside
	// the executor. It is a no-op for parts that have already run.
	ExecuteIfNotAlready(ctx context.Context)

	transformationNode()
}

// base holds the state shared by both node kinds.
type base struct {
	seq    uint64
	step   Step
	deps   DependenciesResolver
	ops    buildop.Executor
	result *lazy.Value[*Subject]
}

func newBase(seq *node.Sequence, step Step, deps DependenciesResolver, ops buildop.Executor) base {
	if ops == nil {
		ops = buildop.NewTracer(nil)
	}
	return base{
		seq:  seq.Next(),
		step: step,
		deps: deps,
		ops:  ops,
	}
}

func (b *base) transformationNode() {}

func (b *base) Sequence() uint64 { return b.seq }

func (b *base) Step() Step { return b.step }

func (b *base) DependenciesResolver() DependenciesResolver { return b.deps }

// String returns the step's display name.
func (b *base) String() string { return b.step.DisplayName() }

func (b *base) OwningProject() string { return b.step.OwningProject() }

func (b *base) TransformedSubject() result.Result[*Subject] { return b.result.Get() }

// Execute runs the step through the memoized result. The outcome, success or
// failure, is captured and never returned or raised.
func (b *base) Execute(ctx context.Context, ec *node.ExecutionContext) {
	b.result.CalculateNow(ctx, ec)
}

func (b *base) Finalizers() []node.Node { return nil }

func (b *base) ResourcesToLock() []node.ResourceLock { return nil }

func (b *base) ProjectToLock() node.ResourceLock { return nil }

// NodeFailure is always nil. Transform failures are data in the stored
// result and never fail the node itself.
func (b *base) NodeFailure() error { return nil }

func (b *base) RethrowNodeFailure() error { return nil }

func (b *base) RequiresMonitoring() bool { return false }

func (b *base) IsPublic() bool { return true }

func (b *base) resolveStepDependencies(ctx context.Context, resolver node.DependencyResolver, onHardSuccessor func(node.Node)) error {
	if err := processDependencies(ctx, resolver, b.step, onHardSuccessor); err != nil {
		return err
	}
	return processDependencies(ctx, resolver, b.deps.ComputeDependencyNodes(b.step), onHardSuccessor)
}

func processDependencies(ctx context.Context, resolver node.DependencyResolver, target any, onHardSuccessor func(node.Node)) error {
	deps, err := resolver.ResolveDependenciesFor(ctx, target)
	if err != nil {
		return fmt.Errorf("resolving dependencies of %v: %w", target, err)
	}
	for _, dep := range deps {
		onHardSuccessor(dep)
	}
	return nil
}

func nodeID(kind string, seq uint64) string {
	return fmt.Sprintf("%s#%d", kind, seq)
}
