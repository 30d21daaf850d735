// Package dag holds the execution graph of a plan: the nodes to run and the
// hard dependency edges between them. Nodes keep no references to their
// dependents; the graph is the only place where edges are recorded.
//
// Every listing the graph returns is sorted with node.Compare, so callers
// iterating it see a stable order.
package dag
