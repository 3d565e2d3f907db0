// Package bus implements the in-process event dispatcher every other
// component communicates through. Dispatch is synchronous: Emit invokes
// every subscribed handler on the calling goroutine, in registration order,
// before returning. A slow handler therefore stalls its emitter; subscribers
// that need to do real work should hand it off themselves.
package bus

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/internal/metrics"
)

// Handler receives the payload of an emitted event.
type Handler func(payload any)

// Subscription identifies one registered handler for targeted removal.
type Subscription struct {
	eventType string
	id        uint64
}

// EventType returns the event type the subscription is registered for.
func (s Subscription) EventType() string { return s.eventType }

// Stats holds the bus's running counters. Counters are monotonic and reset
// only on process restart.
type Stats struct {
	EventsEmitted      uint64
	HandlersInvoked    uint64
	HandlersRegistered uint64
	HandlerErrors      uint64
	StartTime          time.Time
}

type entry struct {
	id   uint64
	fn   Handler
	once bool
}

// Bus is a thread-safe publish/subscribe dispatcher keyed by event type
// strings. The zero value is not usable; construct with New.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]entry
	nextID   uint64
	stats    Stats
	log      zerolog.Logger
}

// New constructs an empty bus. The logger may be zerolog.Nop().
func New(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]entry),
		stats:    Stats{StartTime: time.Now()},
		log:      log.With().Str("component", "bus").Logger(),
	}
}

// Subscribe appends handler to the ordered list for eventType. Handlers are
// invoked in registration order; duplicate registrations are allowed and
// invoked once each.
func (b *Bus) Subscribe(eventType string, fn Handler) Subscription {
	return b.subscribe(eventType, fn, false)
}

// SubscribeOnce registers a handler that is removed before its first
// invocation, so an emit from inside the handler cannot re-trigger it.
func (b *Bus) SubscribeOnce(eventType string, fn Handler) Subscription {
	return b.subscribe(eventType, fn, true)
}

func (b *Bus) subscribe(eventType string, fn Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], entry{id: id, fn: fn, once: once})
	b.stats.HandlersRegistered++
	b.log.Debug().Str("event", eventType).Uint64("id", id).Msg("handler registered")
	return Subscription{eventType: eventType, id: id}
}

// Unsubscribe removes the handler identified by sub. Removing an already
// removed subscription is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[sub.eventType]
	for i, e := range list {
		if e.id == sub.id {
			b.handlers[sub.eventType] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.eventType]) == 0 {
		delete(b.handlers, sub.eventType)
	}
}

// UnsubscribeAll removes every handler registered for eventType.
func (b *Bus) UnsubscribeAll(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, eventType)
}

// Clear removes all handlers for all event types.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]entry)
	b.log.Info().Msg("all handlers cleared")
}

// Emit dispatches payload to every handler subscribed to eventType, in
// registration order, on the calling goroutine. The handler list is copied
// under the lock and dispatch runs with the lock released, so handlers may
// subscribe and unsubscribe freely. A panicking handler is recovered, logged,
// and counted; dispatch continues with the remaining handlers.
func (b *Bus) Emit(eventType string, payload any) {
	b.mu.Lock()
	b.stats.EventsEmitted++
	list := b.handlers[eventType]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	// Once-handlers come off the list before they run.
	if kept := list[:0]; len(list) > 0 {
		for _, e := range list {
			if !e.once {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(b.handlers, eventType)
		} else {
			b.handlers[eventType] = kept
		}
	}
	b.mu.Unlock()

	metrics.IncBusEvent(eventType)
	for _, e := range snapshot {
		b.invoke(eventType, e, payload)
	}
	b.log.Debug().Str("event", eventType).Int("handlers", len(snapshot)).Msg("event emitted")
}

func (b *Bus) invoke(eventType string, e entry, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			b.stats.HandlerErrors++
			b.mu.Unlock()
			metrics.IncBusHandlerError()
			b.log.Error().
				Str("event", eventType).
				Uint64("id", e.id).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
		}
	}()
	e.fn(payload)
	b.mu.Lock()
	b.stats.HandlersInvoked++
	b.mu.Unlock()
}

// HandlerCount returns the number of handlers registered for eventType.
func (b *Bus) HandlerCount(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[eventType])
}

// TotalHandlers returns the number of handlers registered across all types.
func (b *Bus) TotalHandlers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, list := range b.handlers {
		n += len(list)
	}
	return n
}

// EventTypes returns the event types that currently have handlers.
func (b *Bus) EventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.handlers))
	for t := range b.handlers {
		out = append(out, t)
	}
	return out
}

// Stats returns a copy of the bus's running counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
