package request

import (
	"fmt"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusInProgress
	StatusDone
	StatusError
	StatusNotFound
)

var statusNames = [...]string{
	StatusNone:       "none",
	StatusInProgress: "in progress",
	StatusDone:       "done",
	StatusError:      "error",
	StatusNotFound:   "not found",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Entry is the recorded status and caller state for one identifier. Only
// entries with StatusError carry an error.
type Entry[S, E any] struct {
	status Status
	state  S
	err    E
}

// NewEntry returns an entry with a plain status. Use NewErrorEntry to record
// a failure; StatusError here records the zero error value.
func NewEntry[S, E any](status Status, state S) Entry[S, E] {
	return Entry[S, E]{status: status, state: state}
}

func NewErrorEntry[S, E any](state S, err E) Entry[S, E] {
	return Entry[S, E]{status: StatusError, state: state, err: err}
}

func (e Entry[S, E]) Status() Status {
	return e.status
}

func (e Entry[S, E]) State() S {
	return e.state
}

// Err returns the recorded error. ok is false for any status except
// StatusError.
func (e Entry[S, E]) Err() (err E, ok bool) {
	if e.status != StatusError {
		return
	}
	return e.err, true
}

// WithState returns a copy of e with only the state replaced.
func (e Entry[S, E]) WithState(state S) Entry[S, E] {
	e.state = state
	return e
}
