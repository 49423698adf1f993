package eventstore

import "time"

// Event type names emitted over a publish run's lifetime.
const (
	EventRunStarted    = "RunStarted"
	EventStepCompleted = "StepCompleted"
	EventStepFailed    = "StepFailed"
	EventRunCompleted  = "RunCompleted"
)

// Event represents a domain event in the publish pipeline.
type Event interface {
	// ID returns the unique identifier for this event.
	ID() int64
	// RunID returns the publish run identifier this event belongs to.
	RunID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as bytes.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventRunID     string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) RunID() string               { return e.EventRunID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
