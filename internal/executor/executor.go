// Package executor runs an execution graph with a pool of concurrent workers.
//
// A node becomes ready once every node it depends on has executed. The root
// nodes are queued in node.Compare order; every later node is queued when its
// last dependency finishes. When a node reports a node-level failure after
// executing, everything downstream of it is skipped with that failure as the
// reason; unrelated parts of the graph keep running. Transformation nodes never report
// node-level failures, so a failed transform only shows up in its captured
// result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/dag"
	"github.com/specialistvlad/transformgrid/internal/node"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a node during one run.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Outcome is what happened to one node.
type Outcome struct {
	Node  node.Node
	State State
	// Err is the node failure for Failed nodes and the skip reason for
	// Skipped ones.
	Err error
}

// tracked is the per-run bookkeeping of one node.
type tracked struct {
	node     node.Node
	depCount atomic.Int32
	state    atomic.Int32
	// err is written once, by whoever finishes the node, before wg.Done.
	err      error
	skipOnce sync.Once
}

func (t *tracked) setState(s State) { t.state.Store(int32(s)) }

// Executor orchestrates one run of a graph.
type Executor struct {
	graph      *dag.Graph
	numWorkers int

	tracked map[string]*tracked
	wg      sync.WaitGroup
}

// New returns an executor for graph. numWorkers below one is treated as one.
func New(graph *dag.Graph, numWorkers int) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Executor{graph: graph, numWorkers: numWorkers}
}

// Execute runs every node of the graph and returns once each has executed or
// been skipped. It returns an error naming the nodes that failed.
func (e *Executor) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	nodes := e.graph.Nodes()
	e.tracked = make(map[string]*tracked, len(nodes))
	for _, n := range nodes {
		e.tracked[n.ID()] = &tracked{node: n}
	}

	readyChan := make(chan *tracked, len(nodes))

	logger.Debug("Initializing executor, finding root nodes...")
	var roots int
	for _, n := range nodes {
		deps, err := e.graph.Dependencies(n.ID())
		if err != nil {
			return err
		}
		t := e.tracked[n.ID()]
		t.depCount.Store(int32(len(deps)))
		if len(deps) == 0 {
			logger.Debug("Found root node.", "nodeID", n.ID())
			readyChan <- t
			roots++
		}
	}
	logger.Debug("Found all root nodes.", "count", roots)

	if len(nodes) > 0 && roots == 0 {
		return errors.New("graph has no root nodes")
	}

	e.wg.Add(len(nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numWorkers; i++ {
		workerID := i + 1
		g.Go(func() error {
			e.worker(gctx, readyChan, workerID)
			return nil
		})
	}

	logger.Debug("Waiting for all nodes to complete...")
	e.wg.Wait()
	close(readyChan)
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Debug("All nodes completed.")

	var failed []string
	var errs []error
	for _, o := range e.Outcomes() {
		if o.State == Failed {
			failed = append(failed, o.Node.String())
			errs = append(errs, o.Err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Outcomes returns the outcome of every node, in node.Compare order. It is
// only meaningful after Execute has returned.
func (e *Executor) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(e.tracked))
	for _, t := range e.tracked {
		out = append(out, Outcome{Node: t.node, State: State(t.state.Load()), Err: t.err})
	}
	slices.SortFunc(out, func(a, b Outcome) int { return node.Compare(a.Node, b.Node) })
	return out
}

// skipDependents recursively marks all downstream nodes as skipped and
// releases them from the WaitGroup. Every skipped node records cause.
func (e *Executor) skipDependents(ctx context.Context, upstream node.Node, cause error) {
	logger := ctxlog.FromContext(ctx)
	dependents, err := e.graph.Dependents(upstream.ID())
	if err != nil {
		logger.Error("Failed to get dependents for node", "nodeID", upstream.ID(), "error", err)
		return
	}
	for _, dependent := range dependents {
		t := e.tracked[dependent.ID()]
		t.skipOnce.Do(func() {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependent.ID(), "dependency", upstream.ID())
			t.setState(Skipped)
			t.err = cause
			e.wg.Done()
			e.skipDependents(ctx, dependent, cause)
		})
	}
}
