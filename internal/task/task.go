// Package task provides the node kind that runs a producing command. Unlike
// transformation nodes, a task that fails reports a node-level failure, so
// the executor skips everything that depends on it.
package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/node"
	"go.opentelemetry.io/otel/attribute"
)

// Kind is the Kind of every task node.
const Kind = "task.Node"

// Refs names tasks a node depends on. It is the dependency descriptor
// resolved by the plan.
type Refs []string

// Details is the build-operation payload of a task run.
type Details struct {
	Name    string
	Command []string
}

func (d Details) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("transformgrid.task.name", d.Name),
		attribute.StringSlice("transformgrid.task.command", d.Command),
	}
}

// Completed is the result recorded for a task that exited successfully.
type Completed struct{}

func (Completed) String() string { return "completed" }

// Node runs one command.
type Node struct {
	seq       uint64
	name      string
	command   []string
	dir       string
	dependsOn Refs
	ops       buildop.Executor

	mu  sync.Mutex
	err error
}

var _ node.Node = (*Node)(nil)

// New creates a task node. A nil ops records operations on the global
// tracer.
func New(seq *node.Sequence, name string, command []string, dir string, dependsOn []string, ops buildop.Executor) *Node {
	if ops == nil {
		ops = buildop.NewTracer(nil)
	}
	return &Node{
		seq:       seq.Next(),
		name:      name,
		command:   command,
		dir:       dir,
		dependsOn: Refs(dependsOn),
		ops:       ops,
	}
}

func (n *Node) ID() string            { return fmt.Sprintf("%s#%d", Kind, n.seq) }
func (n *Node) Kind() string          { return Kind }
func (n *Node) Sequence() uint64      { return n.seq }
func (n *Node) String() string        { return n.name }
func (n *Node) Name() string          { return n.name }
func (n *Node) OwningProject() string { return "" }

// ResolveDependencies reports the tasks listed in depends_on.
func (n *Node) ResolveDependencies(ctx context.Context, resolver node.DependencyResolver, onHardSuccessor func(node.Node)) error {
	if len(n.dependsOn) == 0 {
		return nil
	}
	deps, err := resolver.ResolveDependenciesFor(ctx, n.dependsOn)
	if err != nil {
		return fmt.Errorf("resolving dependencies of task '%s': %w", n.name, err)
	}
	for _, d := range deps {
		onHardSuccessor(d)
	}
	return nil
}

// Execute runs the command. A failure is kept as the node failure.
func (n *Node) Execute(ctx context.Context, ec *node.ExecutionContext) {
	logger := ctxlog.FromContext(ctx).With("task", n.name)
	if ec != nil {
		logger = logger.With("workerID", ec.WorkerID)
	}

	err := n.ops.Run(ctx, buildop.Descriptor{
		DisplayName:         "Run task " + n.name,
		ProgressDisplayName: "Running task " + n.name,
		Category:            buildop.CategoryTask,
		Details:             Details{Name: n.name, Command: n.command},
	}, func(ctx context.Context, oc buildop.Context) error {
		if len(n.command) == 0 {
			return errors.New("empty command")
		}
		cmd := exec.CommandContext(ctx, n.command[0], n.command[1:]...)
		cmd.Dir = n.dir
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		runErr := cmd.Run()
		if text := strings.TrimSpace(out.String()); text != "" {
			logger.Debug("Task output.", "output", text)
		}
		if runErr != nil {
			if text := strings.TrimSpace(out.String()); text != "" {
				return fmt.Errorf("%w: %s", runErr, lastLine(text))
			}
			return runErr
		}
		oc.SetResult(Completed{})
		return nil
	})

	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (n *Node) Finalizers() []node.Node              { return nil }
func (n *Node) ResourcesToLock() []node.ResourceLock { return nil }
func (n *Node) ProjectToLock() node.ResourceLock     { return nil }

// NodeFailure returns the error of the last run, or nil.
func (n *Node) NodeFailure() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *Node) RethrowNodeFailure() error {
	if err := n.NodeFailure(); err != nil {
		return fmt.Errorf("task '%s' failed: %w", n.name, err)
	}
	return nil
}

func (n *Node) RequiresMonitoring() bool { return false }
func (n *Node) IsPublic() bool           { return true }
