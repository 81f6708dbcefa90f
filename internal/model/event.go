package model

// EventType names a display event sent to a front-end.
type EventType string

const (
	EventSession EventType = "session"
	EventAppend  EventType = "append"
	EventBusy    EventType = "busy"
	EventIdle    EventType = "idle"
	EventError   EventType = "error"
)

// Event is one display instruction: append a message, toggle the busy
// indicator, or show an error banner.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}
