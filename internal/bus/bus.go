// Package bus is the in-process event bus connecting the turn controller,
// the journal, and WebSocket subscribers.
//
// The journal publishes mood.logged events that the turn controller consumes
// to start a proactive turn; the controller publishes state and transcript
// events that the gateway forwards to UI clients. Components never call each
// other directly for notifications, so there is no ambient global state.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/curhatin/curhatin/pkg/protocol"
)

// Event is a typed notification with an optional payload.
type Event struct {
	Type    string
	Payload interface{}
	Seq     int64
}

// Handler receives events. Handlers must not block.
type Handler func(Event)

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Handler
	seq         atomic.Int64
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]Handler),
	}
}

// Subscribe registers a handler under the given ID, replacing any previous
// handler with the same ID.
func (b *Bus) Subscribe(id string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Publish delivers the event to all subscribers with a monotonic sequence
// number. Delivery order across subscribers is unspecified.
func (b *Bus) Publish(eventType string, payload interface{}) {
	ev := Event{
		Type:    eventType,
		Payload: payload,
		Seq:     b.seq.Add(1),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Frame converts the event to its wire representation.
func (e Event) Frame() protocol.EventFrame {
	return protocol.EventFrame{
		Event:   e.Type,
		Payload: e.Payload,
		Seq:     e.Seq,
	}
}
