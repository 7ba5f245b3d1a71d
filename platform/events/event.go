// Package events carries the event bus contracts. Event definitions live
// with the domains (internal/events); this layer knows nothing about them.
package events

import (
	"context"
	"time"
)

// Event is what travels over the bus. Concrete events embed BaseEvent and
// add their own payload fields.
type Event interface {
	// EventName is the stable routing key, e.g. "contacts.contact.created".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with its occurrence time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events. A handler subscribed to several event names
// dispatches on the concrete type itself.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus decouples publishers from subscribers.
type Bus interface {
	// Publish dispatches to all handlers registered for the event's name.
	// Delivery is asynchronous; the publisher does not wait.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits, returning the first handler error.
	// Used where the publisher's outcome depends on delivery (the worker).
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matched against
	// Event.EventName().
	Subscribe(eventName string, handler Handler)
}
