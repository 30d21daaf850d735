package buildop

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrProgress = "transformgrid.operation.progress"
	AttrCategory = "transformgrid.operation.category"
	AttrResult   = "transformgrid.operation.result"
)

// Tracer runs every operation inside an OpenTelemetry span named after the
// operation's display name.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns an executor backed by t. A nil t uses the global tracer.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = otel.Tracer(TracerName)
	}
	return &Tracer{tracer: t}
}

// Run implements Executor.
func (t *Tracer) Run(ctx context.Context, desc Descriptor, op Func) error {
	category := desc.Category
	if category == "" {
		category = CategoryUnknown
	}
	ctx, span := t.tracer.Start(ctx, desc.DisplayName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrProgress, desc.ProgressDisplayName),
			attribute.String(AttrCategory, string(category)),
		),
	)
	defer span.End()

	if src, ok := desc.Details.(AttributeSource); ok {
		span.SetAttributes(src.Attributes()...)
	}

	err := op(ctx, &spanContext{span: span})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type spanContext struct {
	span trace.Span
}

func (c *spanContext) SetResult(res any) {
	c.span.SetAttributes(attribute.String(AttrResult, describeResult(res)))
	if src, ok := res.(AttributeSource); ok {
		c.span.SetAttributes(src.Attributes()...)
	}
}

func describeResult(res any) string {
	if s, ok := res.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", res)
}
