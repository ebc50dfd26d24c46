// Package dispatcher serves the request envelope on the remote side: it routes
// calls by method and path, answers protocol handshakes and publishes events.
package dispatcher

import (
	"encoding/json"
	"fmt"
)

// Request is a decoded request envelope as seen by a route handler.
type Request struct {
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Params  json.RawMessage   `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	// Path is the path component of URL.
	Path string `json:"-"`
}

// Reply is what a route handler returns on success.
type Reply struct {
	StatusCode int
	Headers    map[string]string
	Body       any
}

// Error is a handler error carrying a status and code for the reply.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

// NewError creates a handler error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
