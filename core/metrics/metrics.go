// Package metrics defines the observability boundary for solve runs.
// Implementations live under infra/metrics.
package metrics

import "time"

// SolveEvent describes one completed solver invocation.
type SolveEvent struct {
	Study     string
	Scenario  string
	Status    string
	Objective float64
	Seconds   float64
	Timestamp time.Time
}

// Sink receives solve events. Implementations must be safe for concurrent
// use since parallel optimization reports from multiple goroutines.
type Sink interface {
	RecordSolve(ev SolveEvent)
	Close() error
}

// Nop discards all events.
type Nop struct{}

func (Nop) RecordSolve(SolveEvent) {}
func (Nop) Close() error           { return nil }

// Multi fans events out to several sinks.
type Multi []Sink

func (m Multi) RecordSolve(ev SolveEvent) {
	for _, s := range m {
		s.RecordSolve(ev)
	}
}

func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OrNop returns the given sink, or a Nop when nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}
