// Package workflow drives the kiosk actions: recognizing a face, enrolling a
// student from several camera frames and downloading the attendance report.
// Each action is an explicit state machine that only accepts a new trigger
// while idle.
package workflow

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a workflow is triggered while a previous run is still in flight.
var ErrBusy = errors.New("workflow busy")

// State is the position of a workflow in its state machine.
type State string

// State constants define the lifecycle of a workflow run.
const (
	StateIdle               State = "idle"
	StateAwaitingIdentifier State = "awaiting_identifier"
	StateCapturing          State = "capturing"
	StateSubmitting         State = "submitting"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// machine holds the current state. Done and Failed are terminal for a run and
// fall straight back to Idle; the outcome stays readable through Last.
type machine struct {
	mu      sync.Mutex
	state   State
	last    State
	capture int // index of the frame being captured while in StateCapturing
}

// begin moves Idle -> first, rejecting the trigger in any other state.
func (m *machine) begin(first State) error {
	return m.beginWith(first, nil)
}

// beginWith is begin with enter run under the state lock once the trigger is
// accepted. A rejected trigger never runs enter.
func (m *machine) beginWith(first State, enter func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.idle() {
		return ErrBusy
	}
	m.state = first
	m.capture = 0
	if enter != nil {
		enter()
	}
	return nil
}

// whileIdle runs fn only if no run is in flight and reports whether it ran.
func (m *machine) whileIdle(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.idle() {
		return false
	}
	fn()
	return true
}

func (m *machine) idle() bool {
	return m.state == StateIdle || m.state == ""
}

func (m *machine) transition(to State) {
	m.mu.Lock()
	m.state = to
	m.mu.Unlock()
}

func (m *machine) capturing(index int) {
	m.mu.Lock()
	m.state = StateCapturing
	m.capture = index
	m.mu.Unlock()
}

// finish records the outcome and returns to Idle.
func (m *machine) finish(outcome State) {
	m.mu.Lock()
	m.last = outcome
	m.state = StateIdle
	m.capture = 0
	m.mu.Unlock()
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == "" {
		return StateIdle
	}
	return m.state
}

// Last returns the outcome of the previous run (Done or Failed), empty before the first run.
func (m *machine) Last() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// CaptureIndex returns the index of the frame being captured.
func (m *machine) CaptureIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capture
}
