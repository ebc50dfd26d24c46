package commsutil

import "encoding/json"

// RequestEnvelope is the JSON envelope of a remote call.
type RequestEnvelope struct {
	ID      string            `json:"id"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Params  any               `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ResponseEnvelope is the JSON envelope of a remote call's reply.
type ResponseEnvelope struct {
	ID         string            `json:"id"`
	Ok         bool              `json:"ok"`
	StatusCode int               `json:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	Error      *ErrorDetail      `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// HandshakeRequest asks the server for its protocol version.
type HandshakeRequest struct {
	ID     string `json:"id"`
	Client string `json:"client"`
}

// HandshakeResponse carries the server's protocol version.
type HandshakeResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}
