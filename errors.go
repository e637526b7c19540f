package socketclient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSocketNotOpen is returned when a send is requested while the
	// transport is not open
	ErrSocketNotOpen = errors.New("socket is not open")

	// ErrClientNotConnected is returned when the session is not connected
	ErrClientNotConnected = errors.New("client not connected to server")

	// ErrTooManyMessages is returned when there is more than one handshake
	// message in a handshake response
	ErrTooManyMessages = errors.New("more messages than expected in handshake response")

	// ErrBadChannel is returned when the handshake response is on the wrong
	// channel
	ErrBadChannel = errors.New("handshake responses must come back via the /meta/handshake channel")

	// ErrFailedToConnect is a general connection error
	ErrFailedToConnect = errors.New("connect request was not successful")

	// ErrNoSupportedConnectionTypes is returned when a handshake request is
	// built without any connection types
	ErrNoSupportedConnectionTypes = errors.New("no supported connection types provided")

	// ErrNoVersion is returned when a version is not provided
	ErrNoVersion = errors.New("no version specified")

	// ErrMissingClientID is returned when the client id has not been set
	ErrMissingClientID = errors.New("missing clientID value")

	// ErrMissingConnectionType is returned when the connection type is unset
	ErrMissingConnectionType = errors.New("missing connectionType value")

	// ErrAdviceReconnectNone is returned when the server terminated the
	// session with reconnect advice "none"
	ErrAdviceReconnectNone = errors.New("server advised to neither retry nor handshake")
)

// SocketClosedError is surfaced when the transport closes unexpectedly
type SocketClosedError struct {
	Code     int
	Reason   string
	WasClean bool
}

func (e SocketClosedError) Error() string {
	return fmt.Sprintf("socket closed (code: %d, reason: %q, clean: %v)", e.Code, e.Reason, e.WasClean)
}

// BadResponseError is returned when the HTTP handshake response was not a
// 200
type BadResponseError struct {
	StatusCode int
	Status     string
}

func (e BadResponseError) Error() string {
	return fmt.Sprintf(
		"expected 200 response from bayeux server, got %d with status '%s'",
		e.StatusCode,
		e.Status,
	)
}

// MalformedJSONDataError is returned when an inbound payload failed to
// decode or was not an array
type MalformedJSONDataError struct {
	Err error
}

func (e MalformedJSONDataError) Error() string {
	return fmt.Sprintf("malformed inbound payload (%s)", e.Err)
}

func (e MalformedJSONDataError) Unwrap() error {
	return e.Err
}

// MalformedObjectDataError is returned when an outbound value failed to
// encode
type MalformedObjectDataError struct {
	Err error
}

func (e MalformedObjectDataError) Error() string {
	return fmt.Sprintf("could not encode outbound value (%s)", e.Err)
}

func (e MalformedObjectDataError) Unwrap() error {
	return e.Err
}

// UnhandledMetaChannelError is surfaced for messages on /meta/* outside the
// five known meta channels
type UnhandledMetaChannelError struct {
	Channel Channel
}

func (e UnhandledMetaChannelError) Error() string {
	return fmt.Sprintf("no handler for meta channel %q", e.Channel)
}

// NoCommonConnectionTypeError is returned when the handshake reply
// advertised none of the client-supported transports
type NoCommonConnectionTypeError struct {
	Advertised []string
}

func (e NoCommonConnectionTypeError) Error() string {
	return fmt.Sprintf(
		"no common supported connection type, server advertised [%s]",
		strings.Join(e.Advertised, ", "),
	)
}

// HandshakeFailedError is returned whenever the handshake fails
type HandshakeFailedError struct {
	Err error
}

func (e HandshakeFailedError) Error() string {
	return e.Err.Error()
}

func (e HandshakeFailedError) Unwrap() error {
	return e.Err
}

func newHandshakeError(msg string) HandshakeFailedError {
	return HandshakeFailedError{
		fmt.Errorf("handshake was not successful: %s", msg),
	}
}

// ConnectionFailedError is returned whenever a /meta/connect is
// unsuccessful after handshake
type ConnectionFailedError struct {
	Err error
}

func (e ConnectionFailedError) Error() string {
	return fmt.Sprintf("connection failed (%s)", e.Err)
}

func (e ConnectionFailedError) Unwrap() error {
	return e.Err
}

// SubscriptionFailedError is returned for any errors on subscribe
type SubscriptionFailedError struct {
	Channels []Channel
	Err      error
}

func (e SubscriptionFailedError) Error() string {
	return fmt.Sprintf("subscription failed (%s)", e.Err)
}

func (e SubscriptionFailedError) Unwrap() error {
	return e.Err
}

// UnsubscribeFailedError is returned for any errors on unsubscribe
type UnsubscribeFailedError struct {
	Channels []Channel
	Err      error
}

func (e UnsubscribeFailedError) Error() string {
	return fmt.Sprintf("unsubscribe failed (%s)", e.Err)
}

func (e UnsubscribeFailedError) Unwrap() error {
	return e.Err
}

// ActionFailedError is a general purpose error for unsuccessful meta
// replies
type ActionFailedError struct {
	action string
	err    string
}

func (e ActionFailedError) Error() string {
	return fmt.Sprintf("unable to %s channels: %s", e.action, e.err)
}

func newSubscribeError(msg string) ActionFailedError {
	return ActionFailedError{"subscribe to", msg}
}

func newUnsubscribeError(msg string) ActionFailedError {
	return ActionFailedError{"unsubscribe from", msg}
}

// DisconnectFailedError is returned when the disconnect request fails
type DisconnectFailedError struct {
	Err error
}

func (e DisconnectFailedError) Error() string {
	msg := "unable to disconnect from Bayeux server"

	if e.Err == nil {
		return msg
	}

	return fmt.Sprintf("%s (%s)", msg, e.Err)
}

func (e DisconnectFailedError) Unwrap() error {
	return e.Err
}

// AlreadyRegisteredError signifies that the given MessageExtender is
// already registered with the session
type AlreadyRegisteredError struct {
	MessageExtender
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("extension already registered: %v", e.MessageExtender)
}

// BadConnectionTypeError is returned when we don't know how to handle the
// requested connection type
type BadConnectionTypeError struct {
	ConnectionType string
}

func (e BadConnectionTypeError) Error() string {
	return fmt.Sprintf("%q is not a valid connection type", e.ConnectionType)
}

// BadConnectionVersionError is returned when we can't support the requested
// version number
type BadConnectionVersionError struct {
	Version string
}

func (e BadConnectionVersionError) Error() string {
	return fmt.Sprintf("version %q is invalid for Bayeux protocol", e.Version)
}

// InvalidChannelError is the result of a failure to validate a channel name
type InvalidChannelError struct {
	Channel
}

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("channel %q appears to not be a valid channel", e.Channel)
}

// EmptySliceError is returned when an empty slice is unexpected
type EmptySliceError string

func (e EmptySliceError) Error() string {
	return fmt.Sprintf("no %s provided", string(e))
}

// MessageUnparsableError is returned when we fail to parse a message error
// string
type MessageUnparsableError string

func (e MessageUnparsableError) Error() string {
	return fmt.Sprintf("error message not parseable: %s", string(e))
}

// BadStateError is returned when a state machine transition is not valid
type BadStateError struct {
	CurrentState SessionState
	Event        Event
}

func (e BadStateError) Error() string {
	return fmt.Sprintf("event %q is not valid in state %s", e.Event, e.CurrentState)
}

// UnknownEventTypeError is returned when the next state is unknown
type UnknownEventTypeError struct {
	Event Event
}

func (e UnknownEventTypeError) Error() string {
	return fmt.Sprintf("unknown event type (%q)", e.Event)
}
