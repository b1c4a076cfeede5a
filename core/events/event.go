package events

import "sync"

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events emitted while an operation is in flight. The node
// flushes the buffer on commit and drops it when the operation fails.
type Buffer struct {
	events []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.events = append(b.events, evt)
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	if b == nil {
		return nil
	}
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Flush forwards the buffered events to target and resets the buffer.
func (b *Buffer) Flush(target Emitter) {
	if b == nil {
		return
	}
	if target != nil {
		for _, evt := range b.events {
			target.Emit(evt)
		}
	}
	b.events = nil
}

// Log retains the most recent committed events for inspection over RPC.
type Log struct {
	mu       sync.RWMutex
	capacity int
	events   []Event
}

// NewLog constructs an event log that keeps at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Log{capacity: capacity}
}

// Emit implements the Emitter interface.
func (l *Log) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	if overflow := len(l.events) - l.capacity; overflow > 0 {
		l.events = append([]Event(nil), l.events[overflow:]...)
	}
}

// Recent returns up to limit of the newest events, oldest first.
func (l *Log) Recent(limit int) []Event {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if limit > 0 && len(l.events) > limit {
		start = len(l.events) - limit
	}
	out := make([]Event, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}
