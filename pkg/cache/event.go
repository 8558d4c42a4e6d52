package cache

import "time"

// EventType identifies what happened to a store.
type EventType string

const (
	EventSet     EventType = "set"
	EventGet     EventType = "get"
	EventDelete  EventType = "delete"
	EventExpire  EventType = "expire"
	EventEvict   EventType = "evict"
	EventClear   EventType = "clear"
	EventCleanup EventType = "cleanup"
)

// Event is delivered synchronously to subscribed listeners. Key is empty
// for store-wide events (clear, cleanup).
type Event struct {
	Type      EventType `json:"type"`
	Namespace string    `json:"namespace"`
	Key       string    `json:"key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener receives store events. Panics are recovered and logged; one bad
// listener must not break cache operation.
type Listener func(Event)
