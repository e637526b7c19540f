package socketclient

import "time"

// SessionDelegate receives session lifecycle notifications. All methods
// except AdvisedToRetry and AdvisedToHandshake are fire-and-forget and run
// on the configured delegate queue; the two advice methods are consulted
// synchronously because the reconnect controller needs their answer before
// it can proceed.
//
// Embed NopDelegate to implement only the methods you care about.
type SessionDelegate interface {
	// Connected fires once the session is fully established
	Connected(s *Session)
	// Disconnected fires when the session ends, with the disconnect
	// acknowledgement (if any) and the error that caused the teardown (if
	// any)
	Disconnected(s *Session, m *Message, err error)
	// Failed fires for every surfaced session error
	Failed(s *Session, err error)
	// SubscriptionSucceeded fires per channel acknowledged by the server
	SubscriptionSucceeded(s *Session, channel Channel)
	// ReceivedUnexpectedMessage fires for messages with no local
	// subscription
	ReceivedUnexpectedMessage(s *Session, m *Message)
	// AdvisedToRetry lets the delegate override the retry interval the
	// server advised. Returning the argument unchanged accepts the advice.
	AdvisedToRetry(s *Session, interval time.Duration) time.Duration
	// AdvisedToHandshake reports whether the client should obey the
	// server's advice to re-handshake
	AdvisedToHandshake(s *Session) bool
}

// NopDelegate is a SessionDelegate that ignores every notification and
// accepts every piece of advice.
type NopDelegate struct{}

// Connected implements SessionDelegate
func (NopDelegate) Connected(*Session) {}

// Disconnected implements SessionDelegate
func (NopDelegate) Disconnected(*Session, *Message, error) {}

// Failed implements SessionDelegate
func (NopDelegate) Failed(*Session, error) {}

// SubscriptionSucceeded implements SessionDelegate
func (NopDelegate) SubscriptionSucceeded(*Session, Channel) {}

// ReceivedUnexpectedMessage implements SessionDelegate
func (NopDelegate) ReceivedUnexpectedMessage(*Session, *Message) {}

// AdvisedToRetry implements SessionDelegate
func (NopDelegate) AdvisedToRetry(_ *Session, interval time.Duration) time.Duration {
	return interval
}

// AdvisedToHandshake implements SessionDelegate
func (NopDelegate) AdvisedToHandshake(*Session) bool { return true }

// delegateProxy posts every fire-and-forget notification to the delegate
// queue. A nil delegate makes every call a no-op.
type delegateProxy struct {
	delegate SessionDelegate
	queue    DispatchQueue
}

func (p *delegateProxy) connected(s *Session) {
	if p.delegate == nil {
		return
	}
	p.queue.Dispatch(func() { p.delegate.Connected(s) })
}

func (p *delegateProxy) disconnected(s *Session, m *Message, err error) {
	if p.delegate == nil {
		return
	}
	p.queue.Dispatch(func() { p.delegate.Disconnected(s, m, err) })
}

func (p *delegateProxy) failed(s *Session, err error) {
	if p.delegate == nil {
		return
	}
	p.queue.Dispatch(func() { p.delegate.Failed(s, err) })
}

func (p *delegateProxy) subscriptionSucceeded(s *Session, channel Channel) {
	if p.delegate == nil {
		return
	}
	p.queue.Dispatch(func() { p.delegate.SubscriptionSucceeded(s, channel) })
}

func (p *delegateProxy) receivedUnexpectedMessage(s *Session, m *Message) {
	if p.delegate == nil {
		return
	}
	p.queue.Dispatch(func() { p.delegate.ReceivedUnexpectedMessage(s, m) })
}

func (p *delegateProxy) advisedToRetry(s *Session, interval time.Duration) time.Duration {
	if p.delegate == nil {
		return interval
	}
	return p.delegate.AdvisedToRetry(s, interval)
}

func (p *delegateProxy) advisedToHandshake(s *Session) bool {
	if p.delegate == nil {
		return true
	}
	return p.delegate.AdvisedToHandshake(s)
}
