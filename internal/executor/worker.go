package executor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/node"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *tracked, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for t := range readyChan {
		n := t.node
		workerLogger := logger.With("workerID", workerID, "nodeID", n.ID())

		if err := ctx.Err(); err != nil {
			t.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping node execution.")
				t.setState(Skipped)
				t.err = err
				e.wg.Done()
				e.skipDependents(ctx, n, err)
			})
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		t.setState(Running)

		err := e.run(ctx, n, workerID)
		if err == nil {
			err = n.RethrowNodeFailure()
		}

		if err != nil {
			workerLogger.Error("Node execution failed.", "error", err)
			t.setState(Failed)
			t.err = err
			e.skipDependents(ctx, n, fmt.Errorf("skipped due to upstream failure of '%s': %w", n, err))
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Node execution succeeded.")
		t.setState(Done)

		dependents, err := e.graph.Dependents(n.ID())
		if err != nil {
			workerLogger.Error("Failed to get dependents for completed node", "error", err)
		}
		for _, dependent := range dependents {
			d := e.tracked[dependent.ID()]
			if d.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.ID())
				readyChan <- d
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// run executes n, turning a panic into an error.
func (e *Executor) run(ctx context.Context, n node.Node, workerID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while executing %s: %v", n, r)
		}
	}()
	n.Execute(ctx, &node.ExecutionContext{WorkerID: workerID})
	return nil
}
