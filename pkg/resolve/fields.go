package resolve

import (
	"context"
	"fmt"

	"github.com/morezero/intent-dispatch/pkg/intent"
)

// Any converts a payload/meta field into a Value.
func Any(field any) Value[any] {
	switch f := field.(type) {
	case intent.ResolverFunc:
		return FromFunc(Func[any](f))
	case func(context.Context, intent.Args) (any, error):
		return FromFunc(Func[any](f))
	}
	return Literal(field)
}

// Endpoint converts a validated endpoint field into a Value.
func Endpoint(field any) Value[string] {
	var fn func(any) (string, error)
	switch f := field.(type) {
	case string:
		return Literal(f)
	case intent.EndpointFunc:
		fn = f
	case func(any) (string, error):
		fn = f
	default:
		return Literal(fmt.Sprint(field))
	}
	return FromFunc[string](func(_ context.Context, args intent.Args) (string, error) {
		return fn(args.State)
	})
}

// Headers converts a validated headers field into a Value.
func Headers(field any) Value[map[string]string] {
	var fn func(any) (map[string]string, error)
	switch f := field.(type) {
	case nil:
		return Literal[map[string]string](nil)
	case map[string]string:
		return Literal(f)
	case map[string]any:
		out := make(map[string]string, len(f))
		for k, v := range f {
			out[k] = fmt.Sprint(v)
		}
		return Literal(out)
	case intent.HeadersFunc:
		fn = f
	case func(any) (map[string]string, error):
		fn = f
	default:
		return Literal[map[string]string](nil)
	}
	return FromFunc[map[string]string](func(_ context.Context, args intent.Args) (map[string]string, error) {
		return fn(args.State)
	})
}
