package busmock

import (
	"context"
	"sync"
)

// Event is one recorded publish.
type Event struct {
	Channel string
	Payload any
}

// Bus records every publish so tests can assert on notification order
// and channel names.
type Bus struct {
	mu     sync.Mutex
	events []Event
}

func New() *Bus { return &Bus{} }

func (b *Bus) Publish(_ context.Context, channel string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Channel: channel, Payload: payload})
}

func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Bus) Channels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Channel)
	}
	return out
}

func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
