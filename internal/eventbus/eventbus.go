// Package eventbus provides a small in-process fan-out bus used to report
// study progress to whoever cares (CLI spinner, metrics bridge, tests).
package eventbus

import "sync"

// Event is a progress notification from a case study run.
type Event struct {
	// Kind is one of "scenario_built", "scenario_solved", "scenario_failed",
	// "study_done".
	Kind     string
	Study    string
	Scenario string
	Status   string
	Seconds  float64
	Err      error
}

// Bus fans events out to all subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

func New() *Bus { return &Bus{} }

// Subscribe registers a new subscriber with the given buffer size. After
// Close, the returned channel is already closed.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber that has buffer room.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels.
func (b *Bus) Close() {
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
