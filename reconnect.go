package socketclient

import (
	"errors"
	"syscall"
)

// networkUnreachable reports whether err means the local network cannot
// carry traffic at all. Recovery waits for reachability instead of blindly
// retrying.
func networkUnreachable(err error) bool {
	return errors.Is(err, syscall.ENETDOWN) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTDOWN) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

// connectionInterrupted reports whether err is a connection-level failure
// worth a timed reconnect.
func connectionInterrupted(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENOTCONN) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// handleTransportFailed runs on the worker queue for every transport-level
// error.
func (s *Session) handleTransportFailed(err error) {
	logger := s.logger.WithField("at", "transport").WithError(err)
	logger.Debug("transport failed")

	st := s.stateMachine.CurrentState()
	if st == StateDisconnected {
		s.recoverFromTransportError(err)
		return
	}

	s.fail(err)
	_ = s.stateMachine.ProcessEvent(connectionLost)
	s.state.SetClientID("")
	s.reconnecting.Store(false)
	s.delegate.disconnected(s, nil, err)

	if s.closingByUser {
		return
	}
	s.recoverFromTransportError(err)
}

// recoverFromTransportError decides whether and how to get the session
// back: wait for reachability on network-down errors, schedule a timed
// reconnect on connection-level ones. A negative reconnect interval
// disables recovery entirely.
func (s *Session) recoverFromTransportError(err error) {
	if s.ReconnectInterval() < 0 {
		return
	}
	switch {
	case networkUnreachable(err):
		s.awaitReachability()
	case connectionInterrupted(err):
		s.scheduleReconnect()
	}
}

func (s *Session) scheduleReconnect() {
	interval := s.ReconnectInterval()
	if interval < 0 {
		return
	}
	s.queue.performAfter(interval, func() {
		if s.reconnecting.Load() || s.closingByUser {
			return
		}
		s.reconnect()
	})
}

// awaitReachability registers a reachability observer for the server host.
// Without one configured, a timed reconnect is the best available
// fallback.
func (s *Session) awaitReachability() {
	if s.reachability == nil {
		s.scheduleReconnect()
		return
	}
	if s.stopReachability != nil {
		return
	}
	host := s.socketURL.Hostname()
	s.logger.WithField("at", "reachability").WithField("host", host).Debug("waiting for host")
	s.stopReachability = s.reachability.AwaitReachable(host, func() {
		s.queue.Dispatch(func() {
			s.teardownReachability()
			if s.reconnecting.Load() || s.closingByUser {
				return
			}
			if s.ReconnectInterval() > 0 {
				s.reconnect()
			}
		})
	})
}

func (s *Session) teardownReachability() {
	if s.stopReachability != nil {
		s.stopReachability()
		s.stopReachability = nil
	}
}

// applyAdvice reacts to the server's reconnect instructions before the
// message's meta handler runs, so handlers observe updated state.
func (s *Session) applyAdvice(m *Message) {
	a := m.Advice
	switch {
	case a.ShouldRetry():
		interval := defaultRetryInterval
		if a.Interval > 0 {
			interval = a.IntervalAsDuration()
		}
		interval = s.delegate.advisedToRetry(s, interval)
		if interval <= 0 {
			interval = defaultRetryInterval
		}
		s.setRetryInterval(interval)
	case a.ShouldHandshake():
		if s.delegate.advisedToHandshake(s) {
			s.rehandshake()
		}
	case a.MustNotRetryOrHandshake():
		if m.Subscription.Is("connection") {
			s.fail(ErrAdviceReconnectNone)
			s.teardown(m, ErrAdviceReconnectNone)
		}
	}
}

// rehandshake starts the session over with a fresh handshake, keeping the
// socket when it is still usable.
func (s *Session) rehandshake() {
	s.state.SetClientID("")
	if s.stateMachine.CurrentState() != StateHandshaking {
		if err := s.stateMachine.ProcessEvent(handshakeSent); err != nil {
			s.fail(HandshakeFailedError{err})
			return
		}
	}
	if s.transport.IsOpen() {
		s.sendHandshakeSocket()
		return
	}
	s.transport.Open(s.socketURL)
	if s.maySendHandshakeAsync && s.handshake != nil {
		s.sendHandshakeAsync()
	}
}
