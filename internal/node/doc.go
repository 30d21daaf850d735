// Package node defines the contract shared by every vertex of the execution
// graph.
//
// # Ordering
//
// The executor needs a stable, total order among nodes that are otherwise
// unordered by dependencies. Compare provides it: first by Kind, then by the
// creation sequence handed out by an injected Sequence. The sequence is owned
// by the plan being built, so two plans in the same process (or two tests)
// never share a counter.
//
// # Failures
//
// A node reports a fatal failure through NodeFailure. The executor skips the
// dependents of such a node. Node kinds that treat their failures as data
// (transformation nodes) always return nil here.
package node
