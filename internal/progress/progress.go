package progress

import (
	"fmt"
	"time"
)

// Stage identifies the phase of a validation job an event belongs to.
type Stage string

const (
	StageCreated    Stage = "created"
	StageSegmenting Stage = "segmenting"
	StageParsing    Stage = "parsing"
	StageValidating Stage = "validating"
	StageSearching  Stage = "searching"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Event is one entry in the ordered progress log of a job.
type Event struct {
	Seq     int       `json:"seq"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Log accumulates events with monotonically increasing sequence numbers.
// A job is processed by a single goroutine (one Log per job), so Log does
// not synchronize. Notify, when set, is called synchronously for each
// appended event so a live transport can drain the log as it grows.
type Log struct {
	Notify func(Event)

	events []Event
}

// Append records an event for the given stage. The message is formatted
// with fmt.Sprintf semantics.
func (l *Log) Append(stage Stage, format string, args ...any) {
	e := Event{
		Seq:     len(l.events) + 1,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		At:      time.Now(),
	}
	l.events = append(l.events, e)
	if l.Notify != nil {
		l.Notify(e)
	}
}

// Events returns a copy of the log so far, in append order.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len reports the number of events appended so far.
func (l *Log) Len() int { return len(l.events) }
