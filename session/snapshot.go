package session

import "mentor/history"

// Snapshot is an immutable view of the controller after one transition.
type Snapshot struct {
	State    State
	Reason   string // error code while State is Error
	Status   string
	Controls Controls

	Transcript []Entry
	Sessions   []history.Summary
	Selected   *history.Detail

	// CapabilityError is set when speech capture cannot work at all.
	CapabilityError string
	// Pending is true while a backend call is outstanding.
	Pending  bool
	Answered int
}

// Sink receives every snapshot, in order, from the controller loop.
type Sink interface {
	Publish(Snapshot)
}

type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(s Snapshot) { f(s) }

// Sinks fans one snapshot out to several sinks.
type Sinks []Sink

func (s Sinks) Publish(snap Snapshot) {
	for _, sink := range s {
		sink.Publish(snap)
	}
}
