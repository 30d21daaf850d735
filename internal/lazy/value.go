// Package lazy provides a memoized, thread-safe container for a computation
// that must run at most once.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/result"
)

// ErrNotCalculated is the failure Get reports before the value is resolved.
var ErrNotCalculated = errors.New("value has not been calculated yet")

// Calculation is the work wrapped by a Value.
type Calculation[T any] interface {
	// DisplayName describes the value. It must not depend on the
	// calculation having run.
	DisplayName() string
	// Calculate produces the value. ec is nil when the calculation is
	// triggered outside the executor.
	Calculate(ctx context.Context, ec *node.ExecutionContext) (T, error)
}

// CalculationFunc adapts a plain function to Calculation.
type CalculationFunc[T any] struct {
	Name string
	Fn   func(ctx context.Context, ec *node.ExecutionContext) (T, error)
}

func (c CalculationFunc[T]) DisplayName() string { return c.Name }

func (c CalculationFunc[T]) Calculate(ctx context.Context, ec *node.ExecutionContext) (T, error) {
	return c.Fn(ctx, ec)
}

type state int

const (
	uncomputed state = iota
	computing
	resolved
)

// Value memoizes the outcome of a Calculation. The first CalculateNow claims
// the computation; concurrent callers block until it resolves, and every
// later call returns the stored outcome.
//
// A calculation must not call CalculateNow on its own Value. Reading other,
// already resolved values (for example a predecessor's) is safe since each
// Value has its own lock, which is never held while the calculation runs.
type Value[T any] struct {
	calc Calculation[T]

	mu    sync.Mutex
	state state
	done  chan struct{}
	res   result.Result[T]
}

// New wraps calc. Nothing runs until CalculateNow is called.
func New[T any](calc Calculation[T]) *Value[T] {
	return &Value[T]{
		calc: calc,
		done: make(chan struct{}),
	}
}

// DisplayName describes the wrapped calculation.
func (v *Value[T]) DisplayName() string {
	return v.calc.DisplayName()
}

func (v *Value[T]) String() string {
	return v.DisplayName()
}

// IsCalculated reports whether the outcome has been stored.
func (v *Value[T]) IsCalculated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == resolved
}

// Get returns the stored outcome without triggering the calculation. Before
// the value resolves the outcome is a failure wrapping ErrNotCalculated.
func (v *Value[T]) Get() result.Result[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != resolved {
		return result.Failure[T](fmt.Errorf("%s: %w", v.calc.DisplayName(), ErrNotCalculated))
	}
	return v.res
}

// CalculateNow runs the calculation if no caller has started it yet and
// returns the outcome. Callers arriving while it runs wait for it.
//
// If the calculation panics, the panic is stored as the failure, waiters are
// released, and the panic is re-raised to the caller that ran it. A
// calculation that calls runtime.Goexit is stored as a failure too.
func (v *Value[T]) CalculateNow(ctx context.Context, ec *node.ExecutionContext) result.Result[T] {
	v.mu.Lock()
	switch v.state {
	case resolved:
		res := v.res
		v.mu.Unlock()
		return res
	case computing:
		v.mu.Unlock()
		<-v.done
		return v.Get()
	}
	v.state = computing
	v.mu.Unlock()

	var res result.Result[T]
	finished := false
	defer func() {
		if !finished {
			r := recover()
			if r == nil {
				// runtime.Goexit: let the goroutine keep exiting.
				v.resolve(result.Failure[T](fmt.Errorf("%s: calculation exited without a result", v.calc.DisplayName())))
				return
			}
			v.resolve(result.Failure[T](fmt.Errorf("%s: panic during calculation: %v", v.calc.DisplayName(), r)))
			panic(r)
		}
	}()
	value, err := v.calc.Calculate(ctx, ec)
	res = result.Of(value, err)
	finished = true

	v.resolve(res)
	return res
}

func (v *Value[T]) resolve(res result.Result[T]) {
	v.mu.Lock()
	v.res = res
	v.state = resolved
	v.mu.Unlock()
	close(v.done)
}
