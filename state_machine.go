package socketclient

import (
	"sync/atomic"
)

// SessionState represents the lifecycle state of a session.
type SessionState int32

// stateConnectingBit is set on every state in which a connection attempt is
// underway, so that IsConnecting is a single mask test.
const stateConnectingBit SessionState = 1 << 4

const (
	// StateDisconnected is the initial and terminal state
	StateDisconnected SessionState = 0
	// StateHandshaking means a handshake request is in flight
	StateHandshaking SessionState = stateConnectingBit | 1
	// StateConnecting means the handshake succeeded and the session is
	// waiting to be fully established
	StateConnecting SessionState = stateConnectingBit | 2
	// StateConnected means the session is established and keep-alives are
	// running
	StateConnected SessionState = 3
	// StateDisconnecting means a disconnect request is in flight
	StateDisconnecting SessionState = 4
)

func (s SessionState) String() string {
	switch s {
	case StateHandshaking:
		return "HANDSHAKING"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Event represents an event that can change the state of a state machine
type Event string

const (
	handshakeSent         Event = "handshake request sent"
	handshakeSucceeded    Event = "successful handshake response"
	connectionEstablished Event = "connection established"
	disconnectSent        Event = "disconnect request sent"
	disconnectCompleted   Event = "disconnect acknowledged"
	connectionLost        Event = "connection lost"
)

// sessionStateMachine tracks a session's lifecycle and validates its
// transitions.
//
// See also: https://docs.cometd.org/current/reference/#_client_state_table
type sessionStateMachine struct {
	currentState *int32
}

func newSessionStateMachine() *sessionStateMachine {
	defaultState := int32(StateDisconnected)
	return &sessionStateMachine{&defaultState}
}

// IsConnected reflects whether the session is established
func (sm *sessionStateMachine) IsConnected() bool {
	return SessionState(atomic.LoadInt32(sm.currentState)) == StateConnected
}

// IsConnecting reflects whether a connection attempt (handshake or
// establishment) is in flight
func (sm *sessionStateMachine) IsConnecting() bool {
	return SessionState(atomic.LoadInt32(sm.currentState))&stateConnectingBit != 0
}

// CurrentState provides the current state of the state machine
func (sm *sessionStateMachine) CurrentState() SessionState {
	return SessionState(atomic.LoadInt32(sm.currentState))
}

func (sm *sessionStateMachine) cas(from, to SessionState) bool {
	return atomic.CompareAndSwapInt32(sm.currentState, int32(from), int32(to))
}

func (sm *sessionStateMachine) set(to SessionState) {
	atomic.StoreInt32(sm.currentState, int32(to))
}

// ProcessEvent handles an event, validating it against the current state
func (sm *sessionStateMachine) ProcessEvent(e Event) error {
	switch e {
	case handshakeSent:
		// A fresh connect comes from DISCONNECTED; a server-advised
		// re-handshake comes from CONNECTING or CONNECTED.
		for _, from := range []SessionState{StateDisconnected, StateConnecting, StateConnected} {
			if sm.cas(from, StateHandshaking) {
				return nil
			}
		}
		return BadStateError{sm.CurrentState(), e}
	case handshakeSucceeded:
		if !sm.cas(StateHandshaking, StateConnecting) {
			return BadStateError{sm.CurrentState(), e}
		}
	case connectionEstablished:
		if !sm.cas(StateConnecting, StateConnected) {
			return BadStateError{sm.CurrentState(), e}
		}
	case disconnectSent:
		for _, from := range []SessionState{StateHandshaking, StateConnecting, StateConnected} {
			if sm.cas(from, StateDisconnecting) {
				return nil
			}
		}
		return BadStateError{sm.CurrentState(), e}
	case disconnectCompleted, connectionLost:
		sm.set(StateDisconnected)
	default:
		return UnknownEventTypeError{e}
	}
	return nil
}
