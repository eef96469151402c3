package model

import "time"

// EventType defines the type of real-time event.
type EventType string

const (
	// EventTypeCreated signifies a new record was created.
	EventTypeCreated EventType = "created"
	// EventTypeUpdated signifies an existing record was updated.
	EventTypeUpdated EventType = "updated"
	// EventTypeDeleted signifies a record was deleted.
	EventTypeDeleted EventType = "deleted"
)

// ResumeToken lets a consumer resume an event stream after the given point.
type ResumeToken string

// RealtimeEvent represents a real-time change to a content record. It is
// fanned out to subscribed clients and mirrors, and persisted to the event
// history store.
type RealtimeEvent struct {
	Type EventType `json:"type"`

	// FullPath is the collection path the event belongs to:
	// artifacts/{N}/public/data/{collection}.
	FullPath string `json:"fullPath"`

	Namespace  string `json:"namespace"`
	Collection string `json:"collection"`
	RecordID   string `json:"recordId"`

	// Data is the record payload. Nil for deleted events.
	Data map[string]interface{} `json:"data,omitempty"`

	// OldData carries the previous payload for updated events.
	OldData map[string]interface{} `json:"oldData,omitempty"`

	Timestamp   time.Time   `json:"timestamp"`
	ResumeToken ResumeToken `json:"resumeToken,omitempty"`
}

// SubscriptionRequest is a client frame on the realtime WebSocket.
type SubscriptionRequest struct {
	// Action is "subscribe" or "unsubscribe".
	Action string `json:"action"`

	// Collection is one of the five content collection names.
	Collection string `json:"collection"`

	// ResumeToken, when present on a subscribe, asks for a replay of history
	// events after that point before live events start.
	ResumeToken ResumeToken `json:"resumeToken,omitempty"`
}
