// Package authtoken provides a message extension that carries an
// authentication token in the `ext` field of handshake and connect
// envelopes.
package authtoken

import (
	"sync"

	"github.com/shir/socketclient"
)

// ExtensionName is the key the token travels under in the ext object
const ExtensionName string = "authToken"

// TokenSource supplies the current token. It is consulted on every
// outgoing handshake and connect envelope, so rotating credentials work
// without re-registering the extension.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token() string {
	return string(t)
}

// Extension injects the token into handshake and connect envelopes.
type Extension struct {
	source TokenSource

	mu   sync.Mutex
	name string
}

// New creates an Extension drawing tokens from the given source
func New(source TokenSource) *Extension {
	return &Extension{source: source}
}

// Outgoing attaches the token to handshake and connect envelopes; every
// other envelope is left untouched
func (e *Extension) Outgoing(m *socketclient.Message) {
	switch m.Channel {
	case socketclient.MetaHandshake, socketclient.MetaConnect:
		token := e.source.Token()
		if token == "" {
			return
		}
		ext := m.GetExt(true)
		ext[ExtensionName] = token
	}
}

// Incoming is a no-op; the server never sends tokens back
func (e *Extension) Incoming(m *socketclient.Message) {
}

// Registered records the name the extension is known under. Session.UseExtension
// does not call it.
func (e *Extension) Registered(extensionName string, session *socketclient.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = extensionName
}

// Unregistered clears the recorded name. The session has no way to
// unregister an extension and does not call it.
func (e *Extension) Unregistered() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = ""
}
