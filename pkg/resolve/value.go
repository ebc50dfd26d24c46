// Package resolve evaluates literal-or-function fields with isolated failures.
package resolve

import (
	"context"
	"fmt"

	"github.com/morezero/intent-dispatch/pkg/intent"
)

// Func computes a value of type T.
type Func[T any] func(ctx context.Context, args intent.Args) (T, error)

// Value is either a literal or a resolver function.
type Value[T any] struct {
	lit T
	fn  Func[T]
}

// Literal wraps a fixed value.
func Literal[T any](v T) Value[T] {
	return Value[T]{lit: v}
}

// FromFunc wraps a resolver.
func FromFunc[T any](fn Func[T]) Value[T] {
	return Value[T]{fn: fn}
}

// IsFunc reports whether the value is computed.
func (v Value[T]) IsFunc() bool {
	return v.fn != nil
}

// Eval returns the literal or runs the resolver. A resolver that returns an
// error or panics yields an error; it never propagates the panic.
func (v Value[T]) Eval(ctx context.Context, args intent.Args) (T, error) {
	if v.fn == nil {
		return v.lit, nil
	}
	return Call(func() (T, error) { return v.fn(ctx, args) })
}

// Call runs fn, converting a panic into an error.
func Call[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn()
}
