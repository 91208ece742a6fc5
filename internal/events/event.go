package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is one committed domain change, published to the notification
// sink after the owning transaction commits. Delivery is best-effort;
// a failed broadcast never rolls back the state change.
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
}

// Sink receives committed events. Publish must not block the caller.
type Sink interface {
	Publish(event Event)
}

// BaseEvent is the common implementation backing all domain events
type BaseEvent struct {
	EventID   string      `json:"id"`
	EventType string      `json:"type"`
	Stream    string      `json:"stream_id"`
	EventData interface{} `json:"data"`
	EventTime time.Time   `json:"timestamp"`
}

func (e BaseEvent) ID() string           { return e.EventID }
func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) StreamID() string     { return e.Stream }
func (e BaseEvent) Data() interface{}    { return e.EventData }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }

// NewEvent builds an event with a fresh ID and the current time
func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: time.Now(),
	}
}

// NopSink discards events; used where no subscriber is wired
type NopSink struct{}

func (NopSink) Publish(Event) {}
