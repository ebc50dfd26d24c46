package fsa

import "encoding/json"

// Error names as they appear in serialized payloads.
const (
	NameInvalidIntent  = "InvalidIntent"
	NameInternalError  = "InternalError"
	NameRequestError   = "RequestError"
	NameTransportError = "TransportError"
)

// InvalidIntent is the payload for an intent that failed validation.
type InvalidIntent struct {
	Violations []string
}

func (e *InvalidIntent) Error() string { return "Invalid intent" }

// Name returns the error kind.
func (e *InvalidIntent) Name() string { return NameInvalidIntent }

// MarshalJSON includes name and message so the error survives serialization.
func (e *InvalidIntent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       string   `json:"name"`
		Message    string   `json:"message"`
		Violations []string `json:"validationErrors"`
	}{e.Name(), e.Error(), e.Violations})
}

// InternalError is the payload when a payload or meta resolver failed.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return e.Message }

// Name returns the error kind.
func (e *InternalError) Name() string { return NameInternalError }

// MarshalJSON includes name and message.
func (e *InternalError) MarshalJSON() ([]byte, error) {
	return marshalNamed(e.Name(), e.Message)
}

// RequestError is the payload when endpoint/headers resolution failed or the
// remote call could not be made.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Name returns the error kind.
func (e *RequestError) Name() string { return NameRequestError }

// MarshalJSON includes name and message.
func (e *RequestError) MarshalJSON() ([]byte, error) {
	return marshalNamed(e.Name(), e.Message)
}

// TransportError is the payload when the remote server answered with its
// error flag set.
type TransportError struct {
	Status   int
	Message  string
	Response any
}

func (e *TransportError) Error() string { return e.Message }

// Name returns the error kind.
func (e *TransportError) Name() string { return NameTransportError }

// MarshalJSON includes name, status, message and the parsed response body.
func (e *TransportError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string `json:"name"`
		Status   int    `json:"status"`
		Message  string `json:"message"`
		Response any    `json:"response,omitempty"`
	}{e.Name(), e.Status, e.Message, e.Response})
}

func marshalNamed(name, message string) ([]byte, error) {
	return json.Marshal(struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}{name, message})
}
