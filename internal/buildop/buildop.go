// Package buildop describes units of work that are observed from the outside:
// each operation carries a display name, a progress name, a category and a
// structured detail payload, and may record a structured result.
//
// The observation never changes what the operation returns. Errors from the
// wrapped function come back from Run exactly as they were produced.
package buildop

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Category classifies an operation for consumers that filter on it.
type Category string

const (
	CategoryUnknown   Category = "UNCATEGORIZED"
	CategoryTask      Category = "TASK"
	CategoryTransform Category = "TRANSFORM"
)

// Descriptor describes one operation.
type Descriptor struct {
	DisplayName         string
	ProgressDisplayName string
	Category            Category
	// Details is the structured payload of the operation. Values that
	// implement AttributeSource are exported as span attributes.
	Details any
}

// AttributeSource is implemented by details and results that can describe
// themselves as trace attributes.
type AttributeSource interface {
	Attributes() []attribute.KeyValue
}

// Context is handed to the running operation.
type Context interface {
	// SetResult records the structured result of the operation.
	SetResult(result any)
}

// Func is the body of an operation.
type Func func(ctx context.Context, oc Context) error

// Executor runs described operations.
type Executor interface {
	Run(ctx context.Context, desc Descriptor, op Func) error
}

// Call runs fn as an operation and returns its value.
func Call[T any](ctx context.Context, ex Executor, desc Descriptor, fn func(ctx context.Context, oc Context) (T, error)) (T, error) {
	var out T
	err := ex.Run(ctx, desc, func(ctx context.Context, oc Context) error {
		v, err := fn(ctx, oc)
		out = v
		return err
	})
	return out, err
}
