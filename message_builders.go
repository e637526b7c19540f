package socketclient

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Connection type names used during handshake negotiation.
const (
	// ConnectionTypeWebsocket is the only transport this client advertises
	ConnectionTypeWebsocket string = "websocket"
	// ConnectionTypeLongPolling names the HTTP long-polling transport some
	// servers advertise back
	ConnectionTypeLongPolling string = "long-polling"
	// ConnectionTypeCallbackPolling names the callback-polling transport
	ConnectionTypeCallbackPolling string = "callback-polling"
)

// Protocol versions sent during handshake.
const (
	protocolVersion        string = "1.0"
	protocolMinimumVersion string = "1.0beta"
)

// HandshakeRequestBuilder provides a way to safely create handshake
// requests to /meta/handshake.
//
// See also: https://docs.cometd.org/current/reference/#_handshake_request
type HandshakeRequestBuilder struct {
	version                  string
	minimumVersion           string
	supportedConnectionTypes []string
	ext                      Ext
	id                       string
}

// NewHandshakeRequestBuilder provides an easy way to build a Message that
// can be sent as a handshake request
func NewHandshakeRequestBuilder() *HandshakeRequestBuilder {
	return &HandshakeRequestBuilder{
		supportedConnectionTypes: make([]string, 0, 1),
	}
}

// AddSupportedConnectionType adds a transport name to the list advertised
// in the handshake. It validates and de-duplicates the name.
func (b *HandshakeRequestBuilder) AddSupportedConnectionType(connectionType string) error {
	switch connectionType {
	case ConnectionTypeWebsocket, ConnectionTypeLongPolling, ConnectionTypeCallbackPolling:
		for _, ct := range b.supportedConnectionTypes {
			if ct == connectionType {
				return nil
			}
		}
		b.supportedConnectionTypes = append(b.supportedConnectionTypes, connectionType)
	default:
		return BadConnectionTypeError{connectionType}
	}
	return nil
}

// AddVersion accepts the version of the Bayeux protocol that the client
// supports.
func (b *HandshakeRequestBuilder) AddVersion(version string) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	b.version = version
	return nil
}

// AddMinimumVersion adds the minimum supported protocol version
func (b *HandshakeRequestBuilder) AddMinimumVersion(version string) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	b.minimumVersion = version
	return nil
}

// AddExt attaches the extension object to the request
func (b *HandshakeRequestBuilder) AddExt(ext Ext) {
	b.ext = ext
}

// AddID attaches a correlation token to the request
func (b *HandshakeRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a handshake request
func (b *HandshakeRequestBuilder) Build() (*Message, error) {
	if len(b.supportedConnectionTypes) < 1 {
		return nil, ErrNoSupportedConnectionTypes
	}
	if len(b.version) == 0 {
		return nil, ErrNoVersion
	}
	m := &Message{
		Channel:                  MetaHandshake,
		Version:                  b.version,
		MinimumVersion:           b.minimumVersion,
		SupportedConnectionTypes: b.supportedConnectionTypes,
		Ext:                      b.ext,
		ID:                       b.id,
	}
	return m, nil
}

func validateVersion(version string) error {
	if len(version) < 1 {
		return BadConnectionVersionError{version}
	}
	pieces := strings.SplitN(version, ".", 2)
	if _, err := strconv.Atoi(pieces[0]); err != nil {
		return BadConnectionVersionError{version}
	}
	return nil
}

// ConnectRequestBuilder provides a way to safely build a Message that can
// be sent as a /meta/connect request.
//
// See also: https://docs.cometd.org/current/reference/#_connect_request
type ConnectRequestBuilder struct {
	clientID       string
	connectionType string
	ext            Ext
	id             string
}

// NewConnectRequestBuilder initializes a ConnectRequestBuilder
func NewConnectRequestBuilder() *ConnectRequestBuilder {
	return &ConnectRequestBuilder{}
}

// AddClientID adds the session's clientId to the request
func (b *ConnectRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddConnectionType adds the transport negotiated for this session
func (b *ConnectRequestBuilder) AddConnectionType(connectionType string) error {
	switch connectionType {
	case ConnectionTypeWebsocket, ConnectionTypeLongPolling, ConnectionTypeCallbackPolling:
		b.connectionType = connectionType
	default:
		return BadConnectionTypeError{connectionType}
	}
	return nil
}

// AddExt attaches the connection extension to the request
func (b *ConnectRequestBuilder) AddExt(ext Ext) {
	b.ext = ext
}

// AddID attaches a correlation token to the request
func (b *ConnectRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a connect request
func (b *ConnectRequestBuilder) Build() (*Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	if b.connectionType == "" {
		return nil, ErrMissingConnectionType
	}
	return &Message{
		Channel:        MetaConnect,
		ClientID:       b.clientID,
		ConnectionType: b.connectionType,
		Ext:            b.ext,
		ID:             b.id,
	}, nil
}

// SubscribeRequestBuilder provides an easy way to build a /meta/subscribe
// request.
//
// See also: https://docs.cometd.org/current/reference/#_subscribe_request
type SubscribeRequestBuilder struct {
	clientID     string
	subscription Subscription
	ext          Ext
	id           string
}

// NewSubscribeRequestBuilder initializes a SubscribeRequestBuilder
func NewSubscribeRequestBuilder() *SubscribeRequestBuilder {
	return &SubscribeRequestBuilder{subscription: make(Subscription, 0, 1)}
}

// AddClientID adds the session's clientId to the request
func (b *SubscribeRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddSubscription adds a channel to the aggregated subscription list
func (b *SubscribeRequestBuilder) AddSubscription(c Channel) error {
	if !c.IsValid() {
		return InvalidChannelError{c}
	}
	for _, s := range b.subscription {
		if s == c {
			return nil
		}
	}
	b.subscription = append(b.subscription, c)
	return nil
}

// AddExt attaches the extension object to the request
func (b *SubscribeRequestBuilder) AddExt(ext Ext) {
	b.ext = ext
}

// AddID attaches a correlation token to the request
func (b *SubscribeRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a subscribe request.
// Multiple channels share one aggregated envelope.
func (b *SubscribeRequestBuilder) Build() (*Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	if len(b.subscription) < 1 {
		return nil, EmptySliceError("subscriptions")
	}
	return &Message{
		Channel:      MetaSubscribe,
		ClientID:     b.clientID,
		Subscription: b.subscription,
		Ext:          b.ext,
		ID:           b.id,
	}, nil
}

// UnsubscribeRequestBuilder provides an easy way to build a
// /meta/unsubscribe request.
//
// See also: https://docs.cometd.org/current/reference/#_unsubscribe_request
type UnsubscribeRequestBuilder struct {
	clientID     string
	subscription Subscription
	id           string
}

// NewUnsubscribeRequestBuilder initializes an UnsubscribeRequestBuilder
func NewUnsubscribeRequestBuilder() *UnsubscribeRequestBuilder {
	return &UnsubscribeRequestBuilder{subscription: make(Subscription, 0, 1)}
}

// AddClientID adds the session's clientId to the request
func (b *UnsubscribeRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddSubscription adds a channel to the aggregated unsubscribe list
func (b *UnsubscribeRequestBuilder) AddSubscription(c Channel) error {
	if !c.IsValid() {
		return InvalidChannelError{c}
	}
	for _, s := range b.subscription {
		if s == c {
			return nil
		}
	}
	b.subscription = append(b.subscription, c)
	return nil
}

// AddID attaches a correlation token to the request
func (b *UnsubscribeRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as an unsubscribe request
func (b *UnsubscribeRequestBuilder) Build() (*Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	if len(b.subscription) < 1 {
		return nil, EmptySliceError("subscriptions")
	}
	return &Message{
		Channel:      MetaUnsubscribe,
		ClientID:     b.clientID,
		Subscription: b.subscription,
		ID:           b.id,
	}, nil
}

// DisconnectRequestBuilder provides an easy way to build a /meta/disconnect
// request.
type DisconnectRequestBuilder struct {
	clientID string
	id       string
}

// NewDisconnectRequestBuilder initializes a DisconnectRequestBuilder
func NewDisconnectRequestBuilder() *DisconnectRequestBuilder {
	return &DisconnectRequestBuilder{}
}

// AddClientID adds the session's clientId to the request
func (b *DisconnectRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddID attaches a correlation token to the request
func (b *DisconnectRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a disconnect request
func (b *DisconnectRequestBuilder) Build() (*Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	return &Message{Channel: MetaDisconnect, ClientID: b.clientID, ID: b.id}, nil
}

// PublishRequestBuilder provides an easy way to build a publish envelope
// for an application channel.
//
// See also: https://docs.cometd.org/current/reference/#_publish_request
type PublishRequestBuilder struct {
	channel  Channel
	clientID string
	data     interface{}
	ext      Ext
	id       string
}

// NewPublishRequestBuilder initializes a PublishRequestBuilder
func NewPublishRequestBuilder() *PublishRequestBuilder {
	return &PublishRequestBuilder{}
}

// AddChannel sets the application channel to publish on
func (b *PublishRequestBuilder) AddChannel(c Channel) error {
	if !c.IsValid() || c.Type() == MetaChannel {
		return InvalidChannelError{c}
	}
	b.channel = c
	return nil
}

// AddClientID adds the session's clientId to the request
func (b *PublishRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddData sets the payload being published
func (b *PublishRequestBuilder) AddData(data interface{}) {
	b.data = data
}

// AddExt attaches the extension object to the request
func (b *PublishRequestBuilder) AddExt(ext Ext) {
	b.ext = ext
}

// AddID attaches a correlation token to the request
func (b *PublishRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be published
func (b *PublishRequestBuilder) Build() (*Message, error) {
	if b.channel == emptyChannel {
		return nil, EmptySliceError("channel")
	}
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	raw, err := json.Marshal(b.data)
	if err != nil {
		return nil, MalformedObjectDataError{err}
	}
	return &Message{
		Channel:  b.channel,
		ClientID: b.clientID,
		Data:     raw,
		Ext:      b.ext,
		ID:       b.id,
	}, nil
}
