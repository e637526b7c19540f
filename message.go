package socketclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reconnect advice values a server may attach to a reply.
const (
	ReconnectRetry     string = "retry"
	ReconnectHandshake string = "handshake"
	ReconnectNone      string = "none"
)

// Message represents a single Bayeux envelope, both inbound and outbound.
// All properties are optional except Channel.
type Message struct {
	// Channel is the channel the message was sent on
	Channel Channel `json:"channel"`
	// ClientID identifies the session via the token assigned by the server
	// during handshake
	ClientID string `json:"clientId,omitempty"`
	// ID is a client-chosen correlation token
	ID string `json:"id,omitempty"`
	// Successful reports the outcome of a meta-channel request
	Successful bool `json:"successful,omitempty"`
	// Subscription names the channel(s) a subscribe or unsubscribe
	// acknowledgement refers to
	Subscription Subscription `json:"subscription,omitempty"`
	// Data carries the payload of a published message
	Data json.RawMessage `json:"data,omitempty"`
	// Advice carries the server's reconnection instructions. Serialized as
	// null when absent.
	Advice *Advice `json:"advice"`
	// Ext is the extension object forwarded between client and server.
	// Serialized as null when absent.
	Ext Ext `json:"ext"`
	// ConnectionType is the transport negotiated for this session
	ConnectionType string `json:"connectionType,omitempty"`
	// SupportedConnectionTypes lists the transports a peer supports
	// (handshake only)
	SupportedConnectionTypes []string `json:"supportedConnectionTypes,omitempty"`
	// Error is a human-readable error string on unsuccessful responses
	Error string `json:"error,omitempty"`
	// Version is the protocol version (handshake only)
	Version string `json:"version,omitempty"`
	// MinimumVersion is the minimum protocol version (handshake only)
	MinimumVersion string `json:"minimumVersion,omitempty"`
	// Timestamp is the optional server-side timestamp of the message
	Timestamp string `json:"timestamp,omitempty"`
}

// Ext is the arbitrary JSON extension object carried in the `ext` field,
// commonly used for authentication tokens.
type Ext map[string]interface{}

// GetExt retrieves the Message's Ext field. If create is true and no
// extension is present yet, an empty one is installed first.
func (m *Message) GetExt(create bool) Ext {
	if m.Ext == nil && create {
		m.Ext = make(Ext)
	}
	return m.Ext
}

// TimestampAsTime parses the Timestamp field of the Message
func (m *Message) TimestampAsTime() (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.00", m.Timestamp)
}

// Subscription is the value of the `subscription` field. On the wire it is
// either a single channel path string or an array of them; locally it is
// always a list.
type Subscription []Channel

// MarshalJSON serializes a single-channel subscription as a bare string and
// anything longer as an array.
func (s Subscription) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]Channel(s))
}

// UnmarshalJSON accepts both the string and the array form.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	var single Channel
	if err := json.Unmarshal(data, &single); err == nil {
		*s = Subscription{single}
		return nil
	}
	var many []Channel
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = Subscription(many)
	return nil
}

// Is reports whether the subscription consists of exactly the given value.
func (s Subscription) Is(value string) bool {
	return len(s) == 1 && string(s[0]) == value
}

// Contains reports whether the subscription names the given channel.
func (s Subscription) Contains(c Channel) bool {
	for _, ch := range s {
		if ch == c {
			return true
		}
	}
	return false
}

// Advice represents the server's instructions about reconnection semantics.
//
// See also: https://docs.cometd.org/current/reference/#_bayeux_advice
type Advice struct {
	// Reconnect is one of "retry", "handshake" or "none"
	Reconnect string `json:"reconnect,omitempty"`
	// Interval is the delay, in milliseconds, the server asks the client to
	// wait before the next connect
	Interval int `json:"interval,omitempty"`
	// Timeout is the period, in milliseconds, the server will hold a
	// connect request open
	Timeout int `json:"timeout,omitempty"`
}

// ShouldRetry reports whether the server asked the client to retry the
// connect on the existing session
func (a *Advice) ShouldRetry() bool {
	return a != nil && a.Reconnect == ReconnectRetry
}

// ShouldHandshake reports whether the server asked the client to start over
// with a new handshake
func (a *Advice) ShouldHandshake() bool {
	return a != nil && a.Reconnect == ReconnectHandshake
}

// MustNotRetryOrHandshake reports whether the server terminated the session
func (a *Advice) MustNotRetryOrHandshake() bool {
	return a != nil && a.Reconnect == ReconnectNone
}

// IntervalAsDuration converts the millisecond Interval into a Duration
func (a *Advice) IntervalAsDuration() time.Duration {
	if a == nil {
		return 0
	}
	return time.Duration(a.Interval) * time.Millisecond
}

// MessageError is the structured form of the `error` field, defined by the
// protocol as "<code>:<args>:<message>".
type MessageError struct {
	ErrorCode    int
	ErrorArgs    []string
	ErrorMessage string
}

// ParseError parses the Error string of a Message into a MessageError
func (m *Message) ParseError() (*MessageError, error) {
	pieces := strings.SplitN(m.Error, ":", 3)
	if len(pieces) != 3 {
		return nil, MessageUnparsableError(m.Error)
	}
	code, err := strconv.Atoi(pieces[0])
	if err != nil {
		return nil, MessageUnparsableError(fmt.Sprintf("bad error code in %q", m.Error))
	}
	return &MessageError{
		ErrorCode:    code,
		ErrorArgs:    strings.Split(pieces[1], ","),
		ErrorMessage: pieces[2],
	}, nil
}
