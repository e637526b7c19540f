package socketclient

// MessageExtender defines the interface that extensions are expected to
// implement. Outgoing runs on every envelope before it is encoded,
// Incoming on every message after it is decoded.
type MessageExtender interface {
	Outgoing(*Message)
	Incoming(*Message)
	Registered(extensionName string, session *Session)
	Unregistered()
}
