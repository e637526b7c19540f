package sockettest

import (
	"encoding/json"
	"net/url"
	"sync"

	"github.com/shir/socketclient"
)

// Transport is an in-memory socketclient.Transport. Outbound envelopes are
// recorded and, when a Server is attached, answered immediately.
type Transport struct {
	mu          sync.Mutex
	events      socketclient.TransportEvents
	server      *Server
	open        bool
	openCount   int
	sent        []socketclient.Message
	nextOpenErr error
	silentSends bool
}

// NewTransport creates a Transport answering through the given Server. A
// nil server records sends without replying.
func NewTransport(server *Server) *Transport {
	return &Transport{server: server}
}

// Bind implements socketclient.Transport
func (t *Transport) Bind(events socketclient.TransportEvents) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = events
}

// Name implements socketclient.Transport
func (t *Transport) Name() string {
	return socketclient.ConnectionTypeWebsocket
}

// IsOpen implements socketclient.Transport
func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Open implements socketclient.Transport
func (t *Transport) Open(u *url.URL) {
	t.mu.Lock()
	events := t.events
	failErr := t.nextOpenErr
	t.nextOpenErr = nil
	if failErr == nil {
		t.open = true
		t.openCount++
	}
	t.mu.Unlock()

	if failErr != nil {
		events.TransportFailed(failErr)
		return
	}
	events.TransportOpened()
}

// Close implements socketclient.Transport
func (t *Transport) Close() {
	t.mu.Lock()
	wasOpen := t.open
	t.open = false
	events := t.events
	t.mu.Unlock()

	if wasOpen {
		events.TransportClosed(1000, "", true)
	}
}

// SendText implements socketclient.Transport
func (t *Transport) SendText(text string) error {
	t.mu.Lock()
	if !t.open {
		t.mu.Unlock()
		return socketclient.ErrSocketNotOpen
	}

	var m socketclient.Message
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.mu.Unlock()
		return err
	}
	t.sent = append(t.sent, m)
	server := t.server
	silent := t.silentSends
	events := t.events
	t.mu.Unlock()

	if server == nil || silent {
		return nil
	}
	replies := server.HandleMessage(&m)
	if len(replies) > 0 {
		events.TransportReceivedText(Batch(replies...))
	}
	return nil
}

// FailNextOpen makes the next Open report err instead of opening.
func (t *Transport) FailNextOpen(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextOpenErr = err
}

// SilenceReplies stops the attached server from answering sends.
func (t *Transport) SilenceReplies(silent bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.silentSends = silent
}

// InjectError delivers a transport-level error, marking the socket dead
// the way a failed read loop would.
func (t *Transport) InjectError(err error) {
	t.mu.Lock()
	t.open = false
	events := t.events
	t.mu.Unlock()
	events.TransportFailed(err)
}

// InjectClose delivers a transport close event.
func (t *Transport) InjectClose(code int, reason string, wasClean bool) {
	t.mu.Lock()
	t.open = false
	events := t.events
	t.mu.Unlock()
	events.TransportClosed(code, reason, wasClean)
}

// InjectText delivers a raw inbound frame.
func (t *Transport) InjectText(text string) {
	t.mu.Lock()
	events := t.events
	t.mu.Unlock()
	events.TransportReceivedText(text)
}

// SentMessages returns a copy of every envelope written so far.
func (t *Transport) SentMessages() []socketclient.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]socketclient.Message(nil), t.sent...)
}

// SentOn returns the envelopes written on one channel.
func (t *Transport) SentOn(c socketclient.Channel) []socketclient.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ms []socketclient.Message
	for _, m := range t.sent {
		if m.Channel == c {
			ms = append(ms, m)
		}
	}
	return ms
}

// OpenCount returns how many times the transport was opened.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openCount
}
