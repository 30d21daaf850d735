package transform

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/result"
)

// Subject is the value flowing through a chain: the files of an artifact set
// after some number of steps have been applied. It is immutable.
type Subject struct {
	displayName string
	files       []string
}

// NewSubject returns a subject named displayName holding files.
func NewSubject(displayName string, files []string) *Subject {
	return &Subject{displayName: displayName, files: slices.Clone(files)}
}

// DisplayName names the originating artifacts.
func (s *Subject) DisplayName() string {
	return s.displayName
}

// Files returns a copy of the subject's files.
func (s *Subject) Files() []string {
	return slices.Clone(s.files)
}

// Next returns the subject produced by one more step: same origin, new files.
func (s *Subject) Next(files []string) *Subject {
	return NewSubject(s.displayName, files)
}

func (s *Subject) String() string {
	return s.displayName
}

// Step is the static description of one transform application. Nodes hold a
// Step but never mutate it.
type Step interface {
	DisplayName() string
	// OwningProject returns the owning project, or "" if the step has none.
	OwningProject() string
	// IsolateParameters prepares the step's parameters. It is idempotent;
	// failures surface when an invocation runs.
	IsolateParameters()
	// CreateInvocation binds the step to an input subject. ec is nil when
	// the node is executed outside the executor.
	CreateInvocation(subject *Subject, deps DependenciesResolver, ec *node.ExecutionContext) Invocation
}

// Invocation is one bound application of a Step.
type Invocation interface {
	Invoke(ctx context.Context) result.Result[*Subject]
}

// InvocationFunc adapts a function to Invocation.
type InvocationFunc func(ctx context.Context) result.Result[*Subject]

func (f InvocationFunc) Invoke(ctx context.Context) result.Result[*Subject] {
	return f(ctx)
}

// ArtifactSet is a root set of local artifacts a chain starts from.
type ArtifactSet interface {
	DisplayName() string
	// CalculateSubject materializes the set. A *ResolveError reports a
	// resolution failure; any other error is unexpected.
	CalculateSubject(ctx context.Context) (*Subject, error)
	// TaskDependencies describes the tasks producing the set's files, in a
	// form the node.DependencyResolver understands.
	TaskDependencies() any
}

// DependenciesResolver computes what a step needs from the rest of the graph
// beyond its input subject.
type DependenciesResolver interface {
	// ComputeDependencyNodes returns a descriptor of the extra nodes the
	// step needs, resolved through a node.DependencyResolver.
	ComputeDependencyNodes(step Step) any
	// ComputeArtifacts returns the files of those extra nodes. It is called
	// by invocations, after the extra nodes have run.
	ComputeArtifacts(ctx context.Context, step Step) result.Result[[]string]
}

// CategoryArtifactTransform is the category of a ResolveError raised while
// materializing the root artifacts of a chain.
const CategoryArtifactTransform = "artifact transform"

// ResolveError reports that artifacts could not be resolved.
type ResolveError struct {
	// Subject names what was being resolved.
	Subject string
	// Owner names who asked for it.
	Owner    string
	Category string
	Causes   []error
}

// NewResolveError returns a ResolveError with the given causes.
func NewResolveError(subject, owner, category string, causes ...error) *ResolveError {
	return &ResolveError{Subject: subject, Owner: owner, Category: category, Causes: causes}
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not resolve %s for %s during %s", e.Subject, e.Owner, e.Category)
	for i, cause := range e.Causes {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(cause.Error())
	}
	return b.String()
}

// Unwrap exposes the causes to errors.Is and errors.As.
func (e *ResolveError) Unwrap() []error {
	return e.Causes
}
