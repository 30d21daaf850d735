package dag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/node"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[string]*vertex),
	}
}

// AddNode adds n to the graph. It reports false, and does nothing, if a node
// with the same ID is already present.
func (g *Graph) AddNode(n node.Node) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.vertices[n.ID()]; ok {
		return false
	}

	g.vertices[n.ID()] = &vertex{
		node:       n,
		deps:       make(map[string]*vertex),
		dependents: make(map[string]*vertex),
	}
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (node.Node, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, false
	}
	return v.node, true
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.vertices)
}

// Nodes returns every node in the graph.
func (g *Graph) Nodes() []node.Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]node.Node, 0, len(g.vertices))
	for _, v := range g.vertices {
		out = append(out, v.node)
	}
	slices.SortFunc(out, node.Compare)
	return out
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an existing edge again is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, ok := g.vertices[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	to, ok := g.vertices[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	to.deps[fromID] = from
	from.dependents[toID] = to

	return nil
}

// Dependencies returns the nodes that the given node depends on.
func (g *Graph) Dependencies(id string) ([]node.Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sorted(v.deps), nil
}

// Dependents returns the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]node.Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sorted(v.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// naming the nodes on the first cycle found.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search. permanent holds nodes fully visited and not
	// on a cycle; the stack holds the current path.
	permanent := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []*vertex

	var visit func(v *vertex) error
	visit = func(v *vertex) error {
		id := v.node.ID()
		if permanent[id] {
			return nil
		}
		if onStack[id] {
			start := slices.IndexFunc(stack, func(s *vertex) bool { return s.node.ID() == id })
			names := make([]string, 0, len(stack)-start+1)
			for _, s := range stack[start:] {
				names = append(names, s.node.String())
			}
			names = append(names, v.node.String())
			return fmt.Errorf("cycle detected: %s", strings.Join(names, " -> "))
		}

		onStack[id] = true
		stack = append(stack, v)

		for _, dependent := range sortedVertices(v.dependents) {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
		permanent[id] = true
		return nil
	}

	for _, v := range sortedVertices(g.vertices) {
		if err := visit(v); err != nil {
			return err
		}
	}
	return nil
}

func sortedVertices(m map[string]*vertex) []*vertex {
	out := make([]*vertex, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *vertex) int { return node.Compare(a.node, b.node) })
	return out
}

func sorted(m map[string]*vertex) []node.Node {
	vs := sortedVertices(m)
	out := make([]node.Node, len(vs))
	for i, v := range vs {
		out[i] = v.node
	}
	return out
}
