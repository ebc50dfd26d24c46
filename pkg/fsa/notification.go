// Package fsa defines the Flux-Standard-Action shaped notifications emitted by
// the orchestrator and the error values carried in their payloads.
package fsa

// Notification is a single emitted lifecycle notification. A nil Payload or
// Meta is absent from the JSON form.
type Notification struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

// IsError reports whether the notification carries an error payload.
func (n *Notification) IsError() bool {
	return n != nil && n.Error
}
