package engine

import (
	"time"

	"github.com/yonbergman/electric-planner/state"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Plan events
	EventPlanChanged EventType = iota + 1
	EventPlanShared

	// Persistence events
	EventPlanSaved
	EventSaveFailed

	// Messaging events
	EventMessagingConnected
	EventMessagingDisconnected
)

var eventNames = map[EventType]string{
	EventPlanChanged:           "plan-changed",
	EventPlanShared:            "plan-shared",
	EventPlanSaved:             "plan-saved",
	EventSaveFailed:            "save-failed",
	EventMessagingConnected:    "messaging-connected",
	EventMessagingDisconnected: "messaging-disconnected",
}

// String returns the name used for the event on the SSE stream.
func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return "unknown"
}

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// PlanChangedEvent is emitted after every committed store change.
type PlanChangedEvent struct {
	Action state.Action `json:"action"`
	Entity state.Entity `json:"entity"`
	ID     string       `json:"id,omitempty"`
}

// PlanSharedEvent is emitted when a share link is created.
type PlanSharedEvent struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PlanSavedEvent struct {
	Slot string `json:"slot"`
}

type SaveFailedEvent struct {
	Slot  string `json:"slot"`
	Error string `json:"error"`
}

type ConnectionEvent struct {
	Detail string `json:"detail"`
}
