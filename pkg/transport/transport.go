// Package transport defines the boundary between the orchestrator and the
// real-time client that talks to the remote server.
package transport

import (
	"context"
	"strings"
)

// Request is a single remote call.
type Request struct {
	URL     string
	Method  string
	Params  any
	Headers map[string]string
}

// Response is the raw response of a remote call, with its metadata.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       any
	// Error is set when the server flagged the call as failed.
	Error *ResponseError
}

// ResponseError is the server-reported error of a response.
type ResponseError struct {
	Code    string
	Message string
}

// Header looks up a response header case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	for key, val := range r.Headers {
		if strings.EqualFold(key, name) {
			return val, true
		}
	}
	return "", false
}

// Handler receives inbound event messages.
type Handler func(message any)

// Subscription is an attached event listener.
type Subscription interface {
	Unsubscribe() error
}

// Transport performs remote calls and event subscriptions.
type Transport interface {
	Request(ctx context.Context, req *Request) (*Response, error)
	Subscribe(event string, handler Handler) (Subscription, error)
}

// Configurable is implemented by clients that accept passthrough options.
// SetOption returns false when the client has no property of that name.
type Configurable interface {
	SetOption(name, value string) bool
}
