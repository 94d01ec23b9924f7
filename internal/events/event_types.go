package events

import "time"

// EventType enumerates notification purposes. Listeners only ever see
// events of the type they subscribed to.
type EventType string

const (
	// EventTokenChanged fires after the persisted bearer token was written or removed.
	EventTokenChanged EventType = "token_changed"
	// EventHardReset fires when the shell discards its in-memory state.
	EventHardReset EventType = "hard_reset"
)

// Event represents a notification emitted inside one shell process.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenChangedPayload describes a token store mutation.
type TokenChangedPayload struct {
	Key     string `json:"key"`
	Origin  string `json:"origin"`
	Present bool   `json:"present"`
	Remote  bool   `json:"remote"`
}

// HardResetPayload carries the navigation target of a hard reset.
type HardResetPayload struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}
