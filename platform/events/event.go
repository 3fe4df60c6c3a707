// Package events carries lifecycle notifications between bounded contexts
// without the contexts importing each other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every payload published on the bus.
type Event interface {
	// EventName identifies the event type; subscribers key on it.
	EventName() string
	// OccurredAt is when the event happened, not when it was delivered.
	OccurredAt() time.Time
}

// BaseEvent holds the timestamp every event payload embeds.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers published events to their subscribed handlers.
type Bus interface {
	// Publish hands the event to each subscriber without waiting for them.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler to finish.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name Event.EventName returns.
	Subscribe(eventName string, handler Handler)
}
