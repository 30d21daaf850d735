package node

import (
	"cmp"
	"context"
	"strings"
	"sync/atomic"
)

// Node is a single vertex in the execution graph. The executor resolves a
// node's dependencies once while the plan is built, then calls Execute once
// all of its hard successors have run.
type Node interface {
	// ID is a stable, unique identifier used as the key in the edge set.
	ID() string
	// Kind names the concrete node type. Nodes of different kinds are
	// ordered by kind name before anything else.
	Kind() string
	// Sequence is the creation order assigned at construction time.
	Sequence() uint64
	// String returns the human-readable name of the node.
	String() string
	// OwningProject returns the project the node belongs to, or "" if none.
	OwningProject() string

	// ResolveDependencies reports every node that must run before this one
	// to onHardSuccessor. It is called once per node during plan
	// construction.
	ResolveDependencies(ctx context.Context, resolver DependencyResolver, onHardSuccessor func(Node)) error
	// Execute runs the node's work. It does not return until the work has
	// produced an outcome.
	Execute(ctx context.Context, ec *ExecutionContext)

	Finalizers() []Node
	ResourcesToLock() []ResourceLock
	ProjectToLock() ResourceLock

	// NodeFailure returns the error that makes this node fatal for its
	// dependents, or nil.
	NodeFailure() error
	// RethrowNodeFailure returns NodeFailure wrapped for the caller, or nil.
	RethrowNodeFailure() error

	RequiresMonitoring() bool
	IsPublic() bool
}

// DependencyResolver maps dependency descriptors (a step, a set of producing
// tasks, extra nodes computed for a transform) to the graph nodes that
// satisfy them.
type DependencyResolver interface {
	ResolveDependenciesFor(ctx context.Context, target any) ([]Node, error)
}

// ResourceLock is a lock a node must hold while it runs.
type ResourceLock interface {
	DisplayName() string
}

// ExecutionContext carries scheduler state into a node execution. Nodes run
// outside the scheduler receive a nil context.
type ExecutionContext struct {
	// WorkerID identifies the worker goroutine running the node.
	WorkerID int
}

// Sequence hands out creation-order numbers. A plan owns one Sequence, so
// every node it creates gets a distinct number.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a sequence whose first number is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next atomically increments and returns the counter.
func (s *Sequence) Next() uint64 {
	return s.next.Add(1)
}

// Compare orders nodes of different kinds by kind name and nodes of the same
// kind by creation order. It has no relation to dependency order.
func Compare(a, b Node) int {
	if c := strings.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	return cmp.Compare(a.Sequence(), b.Sequence())
}
