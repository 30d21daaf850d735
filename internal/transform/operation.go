package transform

import (
	"context"

	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/specialistvlad/transformgrid/internal/node"
	"go.opentelemetry.io/otel/attribute"
)

// TransformingProgressPrefix starts the progress name of every transform
// operation. Log consumers filter transform progress lines on this exact text.
const TransformingProgressPrefix = "Transforming "

// ExecuteStepDetails is the structured payload of a transform operation.
type ExecuteStepDetails struct {
	Node            node.Node
	TransformerName string
	SubjectName     string
}

func (d ExecuteStepDetails) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("transformgrid.transform.node", d.Node.ID()),
		attribute.String("transformgrid.transform.transformer", d.TransformerName),
		attribute.String("transformgrid.transform.subject", d.SubjectName),
	}
}

// StepExecuted is the result recorded for every transform operation. The
// operation counts as successful by having run; the transform's own outcome
// is captured by the node.
type StepExecuted struct{}

func (StepExecuted) String() string { return "executed" }

func (b *base) describe(self node.Node, subjectName string) buildop.Descriptor {
	transformerName := b.step.DisplayName()
	basicName := subjectName + " with " + transformerName
	return buildop.Descriptor{
		DisplayName:         "Transform " + basicName,
		ProgressDisplayName: TransformingProgressPrefix + basicName,
		Category:            buildop.CategoryTransform,
		Details: ExecuteStepDetails{
			Node:            self,
			TransformerName: transformerName,
			SubjectName:     subjectName,
		},
	}
}

// runOperation brackets transform with a build operation. Errors from
// transform are returned unchanged.
func (b *base) runOperation(ctx context.Context, self node.Node, subjectName string, transform func(ctx context.Context) (*Subject, error)) (*Subject, error) {
	return buildop.Call(ctx, b.ops, b.describe(self, subjectName), func(ctx context.Context, oc buildop.Context) (*Subject, error) {
		oc.SetResult(StepExecuted{})
		return transform(ctx)
	})
}
