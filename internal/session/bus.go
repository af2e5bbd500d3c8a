// Package session turns authentication events into per-user entry stores.
package session

import "time"

// EventKind is an authentication state change.
type EventKind string

const (
	SignedIn       EventKind = "signed_in"
	SignedOut      EventKind = "signed_out"
	TokenRefreshed EventKind = "token_refreshed"
)

// Event is one authentication state change for a user.
type Event struct {
	Kind   EventKind
	UserID string
	Email  string
	At     time.Time
}

// Bus is an in-process event stream backed by a buffered channel.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish enqueues evt without blocking. It returns false when the buffer
// is full; callers then apply the event directly.
func (b *Bus) Publish(evt Event) bool {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Events returns the receive side for the consumer.
func (b *Bus) Events() <-chan Event { return b.ch }

// Close stops the stream. Publishing after Close panics.
func (b *Bus) Close() { close(b.ch) }
