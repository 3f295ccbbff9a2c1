// internal/monitor/state.go
package monitor

import (
	"errors"
	"fmt"
	"time"
)

// State is a phase of a watch session's connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingAck
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingAck:
		return "awaiting_ack"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a State transition.
type Event int

const (
	EventStart Event = iota
	EventConnected
	EventAcked
	EventMessage
	EventMessageFailed
	EventConnFailed
	EventBackoffElapsed
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventConnected:
		return "connected"
	case EventAcked:
		return "acked"
	case EventMessage:
		return "message"
	case EventMessageFailed:
		return "message_failed"
	case EventConnFailed:
		return "conn_failed"
	case EventBackoffElapsed:
		return "backoff_elapsed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var ErrInvalidTransition = errors.New("invalid state transition")

// Transition returns the state that follows s on event e.
func Transition(s State, e Event) (State, error) {
	switch {
	case s == StateDisconnected && e == EventStart:
		return StateConnecting, nil
	case s == StateConnecting && e == EventConnected:
		return StateAwaitingAck, nil
	case s == StateAwaitingAck && e == EventAcked:
		return StateStreaming, nil
	case s == StateStreaming && (e == EventMessage || e == EventMessageFailed):
		return StateStreaming, nil
	case e == EventConnFailed && (s == StateConnecting || s == StateAwaitingAck || s == StateStreaming):
		return StateBackoff, nil
	case s == StateBackoff && e == EventBackoffElapsed:
		return StateConnecting, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
}

// Machine tracks a session's state together with its reconnect backoff.
// Entering StateStreaming resets the backoff.
type Machine struct {
	state   State
	backoff *Backoff
	delay   time.Duration
}

// NewMachine returns a machine in StateDisconnected.
func NewMachine(backoff *Backoff) *Machine {
	return &Machine{state: StateDisconnected, backoff: backoff}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Delay returns the backoff delay chosen by the last connection failure.
func (m *Machine) Delay() time.Duration {
	return m.delay
}

// Fire applies e and returns the previous state.
func (m *Machine) Fire(e Event) (State, error) {
	prev := m.state
	next, err := Transition(prev, e)
	if err != nil {
		return prev, err
	}

	switch {
	case next == StateStreaming && prev != StateStreaming:
		m.backoff.Reset()
		m.delay = 0
	case next == StateBackoff:
		m.delay = m.backoff.Next()
	}

	m.state = next
	return prev, nil
}
