// Package result provides a captured outcome type: either a success value or
// a failure cause. Failures travel as data instead of control flow, so a
// failed upstream value can be read, mapped and reported without panicking.
package result

import "errors"

// ErrNilFailure replaces a nil cause passed to Failure.
var ErrNilFailure = errors.New("result: failure without a cause")

// Result holds either a value or a failure cause. The zero value is a success
// holding the zero value of T.
type Result[T any] struct {
	value T
	err   error
}

// Success returns a successful result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure returns a failed result holding err.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = ErrNilFailure
	}
	return Result[T]{err: err}
}

// Of captures the conventional (value, error) pair.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether the result holds a value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Err returns the failure cause, or nil for a success.
func (r Result[T]) Err() error {
	return r.err
}

// Get unwraps the result. On failure the returned value is the zero value.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// OrMapFailure returns the value on success, or f applied to the cause.
func (r Result[T]) OrMapFailure(f func(error) T) T {
	if r.err != nil {
		return f(r.err)
	}
	return r.value
}

// Map applies f to a successful value. Failures pass through untouched.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Success(f(r.value))
}

// FlatMap chains a dependent computation. f is not called for a failure, and
// the original cause is carried forward as is.
func FlatMap[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return f(r.value)
}
