package dag

import (
	"sync"

	"github.com/specialistvlad/transformgrid/internal/node"
)

// Graph is the scheduler's edge set: a collection of nodes and their hard
// dependencies. All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the vertices map during concurrent access.
	mutex sync.RWMutex
	// vertices stores all nodes in the graph, keyed by node ID.
	vertices map[string]*vertex
}

// vertex wraps a node with its edges. Edges are sets keyed by node ID, so
// recording the same edge twice has no effect.
type vertex struct {
	node node.Node
	// deps holds the vertices this one depends on (predecessors).
	deps map[string]*vertex
	// dependents holds the vertices that depend on this one (successors).
	dependents map[string]*vertex
}
