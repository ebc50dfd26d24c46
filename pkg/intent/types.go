// Package intent defines the declarative call/listen intents consumed by the orchestrator.
package intent

import "context"

// Kind discriminates the two intent shapes.
type Kind string

const (
	KindCall   Kind = "call"
	KindListen Kind = "listen"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindCall || k == KindListen
}

// InvalidIntentType is the notification type used for an invalid intent that
// declares no usable type of its own.
const InvalidIntentType = "@@intent/INVALID"

// Methods lists the accepted call methods (upper case).
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Intent is a tagged union: Kind selects which of Call or Listen carries the body.
type Intent struct {
	Kind   Kind    `json:"kind"`
	Call   *Call   `json:"call,omitempty"`
	Listen *Listen `json:"listen,omitempty"`
	// Extra holds top-level keys other than kind/call/listen (populated by the JSON decoder).
	Extra map[string]any `json:"-"`
}

// Call describes a request against the remote server.
//
// Fields are dynamically typed so that malformed intents can be reported by
// the validator instead of failing to construct:
//   - Endpoint: string or EndpointFunc
//   - Method:   string, one of Methods (case-insensitive)
//   - Headers:  map[string]string, map[string]any or HeadersFunc
//   - Types:    three entries, each a string or a TypeDescriptor
type Call struct {
	Endpoint any            `json:"endpoint,omitempty"`
	Method   any            `json:"method,omitempty"`
	Body     any            `json:"body,omitempty"`
	Headers  any            `json:"headers,omitempty"`
	Types    any            `json:"types,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Listen describes a subscription to a remote event.
type Listen struct {
	On    any            `json:"on,omitempty"`
	Type  any            `json:"type,omitempty"`
	Extra map[string]any `json:"-"`
}

// TypeDescriptor is the template of a notification. Payload and Meta are
// either literal values or a ResolverFunc.
type TypeDescriptor struct {
	Type    any            `json:"type"`
	Payload any            `json:"payload,omitempty"`
	Meta    any            `json:"meta,omitempty"`
	Extra   map[string]any `json:"-"`
}

// Args is what payload/meta resolvers are evaluated against.
type Args struct {
	Intent *Intent
	State  any
	// Extra is the raw *transport.Response for call success/failure and the
	// inbound message for listen notifications. Nil otherwise.
	Extra any
}

// ResolverFunc computes a payload or meta value.
type ResolverFunc func(ctx context.Context, args Args) (any, error)

// EndpointFunc computes the endpoint from host state.
type EndpointFunc func(state any) (string, error)

// HeadersFunc computes request headers from host state.
type HeadersFunc func(state any) (map[string]string, error)

// NewCall builds a call intent.
func NewCall(method string, endpoint any, types ...any) *Intent {
	list := make([]any, len(types))
	copy(list, types)
	return &Intent{
		Kind: KindCall,
		Call: &Call{Endpoint: endpoint, Method: method, Types: list},
	}
}

// NewListen builds a listen intent.
func NewListen(on string, typ any) *Intent {
	return &Intent{
		Kind:   KindListen,
		Listen: &Listen{On: on, Type: typ},
	}
}

// From classifies a host action. It returns the intent and true when the
// action carries a kind marker; every other action is not an intent.
func From(action any) (*Intent, bool) {
	switch a := action.(type) {
	case *Intent:
		if a != nil && a.Kind != "" {
			return a, true
		}
	case Intent:
		if a.Kind != "" {
			return &a, true
		}
	}
	return nil, false
}

// AsDescriptor returns v as a descriptor when it has descriptor shape
// (TypeDescriptor, *TypeDescriptor or a plain map).
func AsDescriptor(v any) (*TypeDescriptor, bool) {
	switch d := v.(type) {
	case TypeDescriptor:
		return &d, true
	case *TypeDescriptor:
		if d == nil {
			return nil, false
		}
		return d, true
	case map[string]any:
		return descriptorFromMap(d), true
	}
	return nil, false
}

// TypeName extracts the bare notification type from a type entry: either the
// string itself or the descriptor's string type.
func TypeName(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if d, ok := AsDescriptor(v); ok {
		s, ok := d.Type.(string)
		return s, ok
	}
	return "", false
}

// TypeList returns the call types as a list when they have list shape.
func TypeList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []TypeDescriptor:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []*TypeDescriptor:
		out := make([]any, len(l))
		for i, d := range l {
			out[i] = d
		}
		return out, true
	}
	return nil, false
}
