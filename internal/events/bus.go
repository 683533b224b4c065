// Package events carries surface activity to observers that must not slow
// down the poll loop.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Handlers run asynchronously.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers. A nil Bus discards it.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case CCSentEvent:
		event.Publish(b.dispatcher, e)
	case CCReceivedEvent:
		event.Publish(b.dispatcher, e)
	case CCDroppedEvent:
		event.Publish(b.dispatcher, e)
	case TrackCountEvent:
		event.Publish(b.dispatcher, e)
	case EnabledChangedEvent:
		event.Publish(b.dispatcher, e)
	case ControlErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type selects the events it receives. Returns an unsubscribe
// function.
// Usage: unsub := bus.Subscribe(func(e CCSentEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CCSentEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CCReceivedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CCDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TrackCountEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EnabledChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ControlErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
