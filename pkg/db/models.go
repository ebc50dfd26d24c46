package db

import (
	"encoding/json"
	"time"
)

// Notification is a journaled notification row.
type Notification struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
	IsError bool            `json:"isError"`
	Source  string          `json:"source"`
	Created time.Time       `json:"created"`
}

// ListNotificationsParams filters ListNotifications. Zero values mean no filter.
type ListNotificationsParams struct {
	Type       string
	ErrorsOnly bool
	Limit      int
}
