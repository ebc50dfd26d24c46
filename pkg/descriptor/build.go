package descriptor

import (
	"context"

	"github.com/morezero/intent-dispatch/pkg/fsa"
	"github.com/morezero/intent-dispatch/pkg/intent"
)

// Build evaluates a descriptor into a fresh notification.
//
// A failing payload resolver replaces the payload with an InternalError and
// sets the error flag; meta is still evaluated. A failing meta resolver drops
// meta and also overwrites the payload with an InternalError, even when the
// payload resolved successfully.
func Build(ctx context.Context, d Descriptor, args intent.Args) *fsa.Notification {
	n := &fsa.Notification{Type: d.Type, Error: d.Error}

	payload, err := d.Payload.Eval(ctx, args)
	if err != nil {
		n.Payload = &fsa.InternalError{Message: err.Error()}
		n.Error = true
	} else {
		n.Payload = payload
	}

	meta, err := d.Meta.Eval(ctx, args)
	if err != nil {
		n.Meta = nil
		n.Payload = &fsa.InternalError{Message: err.Error()}
		n.Error = true
	} else {
		n.Meta = meta
	}
	return n
}
