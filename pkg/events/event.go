package events

import "time"

// Session lifecycle event types published on the bus and to NATS.
const (
	TypeSessionCompleted = "ORAL_SESSION_COMPLETED"
	TypeSessionScored    = "ORAL_SESSION_SCORED"
	TypeSessionAbandoned = "ORAL_SESSION_ABANDONED"
)

// Event is the contract every published event satisfies.
type Event interface {
	// EventType returns the event's unique code, e.g. "ORAL_SESSION_COMPLETED".
	EventType() string

	// Payload returns the data carried by the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a ready-made Event for callers that don't need a
// dedicated type per event.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
