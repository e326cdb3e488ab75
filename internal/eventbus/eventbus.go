// Package eventbus is an in-process fan-out publish/subscribe bus.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event represents an arbitrary event passed on the bus.
type Event any

// EventBus is the untyped bus shared by the planning components.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Typed is a publish/subscribe bus for events of type T. Delivery never
// blocks the publisher: an event is dropped for a subscriber whose buffer
// is full, and counted.
type Typed[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buf     int
	closed  bool
	dropped atomic.Uint64
}

// Bus is the untyped bus.
type Bus = Typed[Event]

// New creates an untyped bus.
func New() *Bus { return NewTyped[Event](DefaultBuffer) }

// NewTyped creates a bus whose subscribers buffer up to buf events.
func NewTyped[T any](buf int) *Typed[T] {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	return &Typed[T]{buf: buf}
}

// Publish sends the event to all subscribers.
func (b *Typed[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber and returns its channel. Subscribing
// to a closed bus yields a closed channel.
func (b *Typed[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buf)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Typed[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *Typed[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Dropped returns the number of deliveries lost to full buffers.
func (b *Typed[T]) Dropped() uint64 { return b.dropped.Load() }
