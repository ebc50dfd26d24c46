package descriptor

import (
	"context"

	"github.com/morezero/intent-dispatch/pkg/intent"
	"github.com/morezero/intent-dispatch/pkg/resolve"
)

type resolveValue = resolve.Value[any]

func resolveFunc(fn func(context.Context, intent.Args) (any, error)) resolveValue {
	return resolve.FromFunc[any](fn)
}

func resolveLiteral(v any) resolveValue {
	return resolve.Literal[any](v)
}
