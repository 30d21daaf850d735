// Package nodetest provides a configurable node.Node for tests of graph
// infrastructure.
package nodetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/transformgrid/internal/node"
)

// Stub is a node.Node whose dependencies and outcome are set by the test.
type Stub struct {
	KindName string
	Name     string
	// Deps are reported as hard successors by ResolveDependencies.
	Deps []node.Node
	// Err becomes the node failure once the stub has executed.
	Err error
	// OnExecute, if set, runs inside Execute.
	OnExecute func(ctx context.Context, ec *node.ExecutionContext)

	seq uint64

	mu         sync.Mutex
	executions int
	workers    []int
}

var _ node.Node = (*Stub)(nil)

// New returns a stub of the given kind that takes its number from seq.
func New(seq *node.Sequence, kind, name string, deps ...node.Node) *Stub {
	return &Stub{KindName: kind, Name: name, Deps: deps, seq: seq.Next()}
}

func (s *Stub) ID() string            { return fmt.Sprintf("%s#%d", s.KindName, s.seq) }
func (s *Stub) Kind() string          { return s.KindName }
func (s *Stub) Sequence() uint64      { return s.seq }
func (s *Stub) String() string        { return s.Name }
func (s *Stub) OwningProject() string { return "" }

func (s *Stub) ResolveDependencies(_ context.Context, _ node.DependencyResolver, onHardSuccessor func(node.Node)) error {
	for _, d := range s.Deps {
		onHardSuccessor(d)
	}
	return nil
}

func (s *Stub) Execute(ctx context.Context, ec *node.ExecutionContext) {
	if s.OnExecute != nil {
		s.OnExecute(ctx, ec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions++
	if ec != nil {
		s.workers = append(s.workers, ec.WorkerID)
	}
}

// Executions returns how many times Execute has run.
func (s *Stub) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

func (s *Stub) Finalizers() []node.Node              { return nil }
func (s *Stub) ResourcesToLock() []node.ResourceLock { return nil }
func (s *Stub) ProjectToLock() node.ResourceLock     { return nil }

func (s *Stub) NodeFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executions == 0 {
		return nil
	}
	return s.Err
}

func (s *Stub) RethrowNodeFailure() error {
	if err := s.NodeFailure(); err != nil {
		return fmt.Errorf("%s failed: %w", s.Name, err)
	}
	return nil
}

func (s *Stub) RequiresMonitoring() bool { return false }
func (s *Stub) IsPublic() bool           { return true }
