// Package descriptor normalizes notification type descriptors and evaluates
// them into notifications.
package descriptor

import (
	"context"

	"github.com/morezero/intent-dispatch/pkg/fsa"
	"github.com/morezero/intent-dispatch/pkg/intent"
	"github.com/morezero/intent-dispatch/pkg/resolve"
	"github.com/morezero/intent-dispatch/pkg/transport"
)

// Descriptor is a normalized notification template.
type Descriptor struct {
	Type    string
	Payload resolve.Value[any]
	Meta    resolve.Value[any]
	Error   bool
}

// WithError returns a copy of d that always yields payload with the error flag set.
// Meta is kept and still evaluated.
func (d Descriptor) WithError(payload any) Descriptor {
	d.Payload = resolve.Literal(payload)
	d.Error = true
	return d
}

// NormalizeCall expands the three call type entries into request, success and
// failure descriptors. Success and failure get default payloads unless the
// entry supplies its own. The input must have passed validation.
func NormalizeCall(types []any) (request, success, failure Descriptor) {
	request, _ = fromEntry(types[0])

	success, custom := fromEntry(types[1])
	if !custom {
		success.Payload = resolve.FromFunc[any](successPayload)
	}

	failure, custom = fromEntry(types[2])
	if !custom {
		failure.Payload = resolve.FromFunc[any](failurePayload)
	}
	return request, success, failure
}

// NormalizeListen expands a listen type entry. The default payload is the
// inbound message itself.
func NormalizeListen(entry any) Descriptor {
	d, custom := fromEntry(entry)
	if !custom {
		d.Payload = resolve.FromFunc[any](func(_ context.Context, args intent.Args) (any, error) {
			return args.Extra, nil
		})
	}
	return d
}

// fromEntry converts a bare type or descriptor, reporting whether a payload was supplied.
func fromEntry(entry any) (Descriptor, bool) {
	if s, ok := entry.(string); ok {
		return Descriptor{Type: s}, false
	}
	td, ok := intent.AsDescriptor(entry)
	if !ok {
		return Descriptor{}, false
	}
	typ, _ := td.Type.(string)
	return Descriptor{
		Type:    typ,
		Payload: resolve.Any(td.Payload),
		Meta:    resolve.Any(td.Meta),
	}, td.Payload != nil
}

func successPayload(_ context.Context, args intent.Args) (any, error) {
	res, _ := args.Extra.(*transport.Response)
	return GetJSON(res), nil
}

func failurePayload(_ context.Context, args intent.Args) (any, error) {
	res, _ := args.Extra.(*transport.Response)
	if res == nil {
		return &fsa.TransportError{}, nil
	}
	var message string
	if res.Error != nil {
		message = res.Error.Message
	}
	return &fsa.TransportError{
		Status:   res.StatusCode,
		Message:  message,
		Response: GetJSON(res),
	}, nil
}
