package ringchan

import "sync/atomic"

// RingChannel is a bounded channel-like buffer with overwrite-oldest semantics.
//
// It wraps an underlying buffered channel and ensures producers never block:
// if the buffer is full, the oldest element is discarded. A slow reader
// therefore observes only the most recent values, never an unread backlog.
type RingChannel[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// New creates a RingChannel with the given capacity. Capacity must be > 0.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
// Consumers can range over this until it's closed.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts an item, discarding the oldest if the buffer is full.
// It never blocks indefinitely.
func (rc *RingChannel[T]) Send(v T) {
	select {
	case rc.ch <- v:
	default:
		select {
		case <-rc.ch:
			rc.dropped.Add(1)
		default:
		}
		select {
		case rc.ch <- v:
		default:
			// Lost the race to another producer; drop the new value instead.
			rc.dropped.Add(1)
		}
	}
}

// TrySend attempts to insert without blocking.
// Returns true if successful, false if the buffer is full.
func (rc *RingChannel[T]) TrySend(v T) bool {
	select {
	case rc.ch <- v:
		return true
	default:
		return false
	}
}

// Dropped reports how many values were discarded due to a full buffer.
func (rc *RingChannel[T]) Dropped() uint64 {
	return rc.dropped.Load()
}

// Close closes the underlying channel. Senders must not call Send after Close.
func (rc *RingChannel[T]) Close() {
	close(rc.ch)
}
