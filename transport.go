package socketclient

import "net/url"

// TransportEvents is the callback half of the transport contract. A
// transport delivers every event through the sink it was bound to; the
// session serializes them onto its worker queue.
type TransportEvents interface {
	// TransportOpened fires once the transport is ready to send
	TransportOpened()
	// TransportReceivedText delivers one inbound text frame
	TransportReceivedText(text string)
	// TransportClosed fires when the transport shuts down
	TransportClosed(code int, reason string, wasClean bool)
	// TransportFailed fires for transport-level errors, including the
	// POSIX-class network errors the reconnect controller inspects
	TransportFailed(err error)
}

// Transport is a bidirectional text-frame connection to the server. Open
// and Close are asynchronous; results arrive through the bound
// TransportEvents.
type Transport interface {
	// Bind attaches the event sink. It must be called before Open.
	Bind(events TransportEvents)
	// Open starts connecting to the given endpoint
	Open(u *url.URL)
	// Close tears the connection down
	Close()
	// SendText writes one outbound text frame
	SendText(text string) error
	// IsOpen reports whether SendText can currently succeed
	IsOpen() bool
	// Name is the Bayeux connection-type name of this transport
	Name() string
}

// Reachability observes a host's network reachability. Implementations are
// platform specific; the session only asks to be told, once, when the host
// becomes reachable again.
type Reachability interface {
	// AwaitReachable registers interest in host becoming reachable and
	// returns a function that tears the observation down.
	AwaitReachable(host string, onReachable func()) (stop func())
}
