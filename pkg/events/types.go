// Package events publishes the actions the orchestrator hands to the host
// store: notifications and the actions it passed through untouched.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/morezero/intent-dispatch/pkg/fsa"
)

// Record is the journaled form of a notification.
type Record struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
	Error   bool            `json:"error"`
	Source  string          `json:"source,omitempty"`
}

// AsNotification returns the notification carried by action, if any.
func AsNotification(action any) (*fsa.Notification, bool) {
	switch n := action.(type) {
	case *fsa.Notification:
		return n, n != nil
	case fsa.Notification:
		return &n, true
	}
	return nil, false
}

// NewRecord encodes a notification for the journal.
func NewRecord(n *fsa.Notification, source string) (*Record, error) {
	rec := &Record{Type: n.Type, Error: n.Error, Source: source}
	if n.Payload != nil {
		data, err := json.Marshal(n.Payload)
		if err != nil {
			return nil, fmt.Errorf("events:types - failed to encode payload of %s: %w", n.Type, err)
		}
		rec.Payload = data
	}
	if n.Meta != nil {
		data, err := json.Marshal(n.Meta)
		if err != nil {
			return nil, fmt.Errorf("events:types - failed to encode meta of %s: %w", n.Type, err)
		}
		rec.Meta = data
	}
	return rec, nil
}
