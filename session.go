package socketclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	defaultRetryInterval     = 45 * time.Second
	defaultReconnectInterval = 1 * time.Second
)

// Options stores the available configuration options for a Session
type Options struct {
	Logger                Logger
	HTTPClient            *http.Client
	Dialer                *websocket.Dialer
	Transport             Transport
	Delegate              SessionDelegate
	DelegateQueue         DispatchQueue
	CallbackQueue         DispatchQueue
	Reachability          Reachability
	HandshakeExt          Ext
	RetryInterval         time.Duration
	ReconnectInterval     time.Duration
	MaySendHandshakeAsync bool
	AwaitOnlyHandshake    bool
}

// Option defines the type passed into NewSession for configuration
type Option func(*Options)

// WithLogger returns an Option with logger.
func WithLogger(logger Logger) Option {
	return func(options *Options) {
		options.Logger = logger
	}
}

// WithFieldLogger returns an Option that logs through a logrus
// FieldLogger.
func WithFieldLogger(logger logrus.FieldLogger) Option {
	return func(options *Options) {
		options.Logger = &wrappedFieldLogger{logger}
	}
}

// WithHTTPClient returns an Option with a custom http.Client for the
// handshake path.
func WithHTTPClient(client *http.Client) Option {
	return func(options *Options) {
		options.HTTPClient = client
	}
}

// WithDialer returns an Option with a custom websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(options *Options) {
		options.Dialer = dialer
	}
}

// WithTransport returns an Option that replaces the default WebSocket
// transport entirely.
func WithTransport(transport Transport) Option {
	return func(options *Options) {
		options.Transport = transport
	}
}

// WithDelegate returns an Option that installs the delegate receiving
// session notifications.
func WithDelegate(delegate SessionDelegate) Option {
	return func(options *Options) {
		options.Delegate = delegate
	}
}

// WithDelegateQueue returns an Option with the queue delegate
// notifications are dispatched on.
func WithDelegateQueue(queue DispatchQueue) Option {
	return func(options *Options) {
		options.DelegateQueue = queue
	}
}

// WithCallbackQueue returns an Option with the queue subscription and
// connect-success callbacks are dispatched on.
func WithCallbackQueue(queue DispatchQueue) Option {
	return func(options *Options) {
		options.CallbackQueue = queue
	}
}

// WithReachability returns an Option with a host reachability observer
// used by the reconnect controller.
func WithReachability(reachability Reachability) Option {
	return func(options *Options) {
		options.Reachability = reachability
	}
}

// WithHandshakeExtension returns an Option with the extension object sent
// on every handshake.
func WithHandshakeExtension(ext Ext) Option {
	return func(options *Options) {
		options.HandshakeExt = ext
	}
}

// WithRetryInterval returns an Option with the keep-alive period.
func WithRetryInterval(interval time.Duration) Option {
	return func(options *Options) {
		options.RetryInterval = interval
	}
}

// WithReconnectInterval returns an Option with the post-failure reconnect
// delay. A negative value disables automatic reconnects.
func WithReconnectInterval(interval time.Duration) Option {
	return func(options *Options) {
		options.ReconnectInterval = interval
	}
}

// WithHandshakeAsync returns an Option controlling whether the handshake
// may travel over HTTP in parallel with the socket opening.
func WithHandshakeAsync(enabled bool) Option {
	return func(options *Options) {
		options.MaySendHandshakeAsync = enabled
	}
}

// WithAwaitOnlyHandshake returns an Option controlling when the
// connect-success callback fires: after the handshake acknowledgement
// (true) or after the first /meta/connect acknowledgement (false).
func WithAwaitOnlyHandshake(enabled bool) Option {
	return func(options *Options) {
		options.AwaitOnlyHandshake = enabled
	}
}

// Session is a client-side Bayeux session: it handshakes for an identity,
// keeps the connection alive with periodic /meta/connect envelopes,
// dispatches published messages to subscription callbacks and obeys the
// server's reconnection advice.
//
// All public methods are asynchronous; failures surface through the
// delegate. The caller must hold a reference to the Session for as long as
// it should stay alive.
type Session struct {
	queue         *SerialQueue
	transport     Transport
	handshake     *httpHandshake
	stateMachine  *sessionStateMachine
	dispatcher    *metaDispatcher
	subscriptions *subscriptionRegistry
	ids           *messageIDGenerator
	logger        Logger
	delegate      *delegateProxy
	callbackQueue DispatchQueue
	reachability  Reachability
	ownedQueues   []*SerialQueue

	socketURL *url.URL
	httpURL   *url.URL

	state *clientState
	exts  []MessageExtender

	handshakeExt          Ext
	maySendHandshakeAsync bool
	awaitOnlyHandshake    bool

	retryInterval     atomic.Int64
	reconnectInterval atomic.Int64
	reconnecting      atomic.Bool

	// worker-queue-only state
	connectionExt               Ext
	closingByUser               bool
	keepAlivePending            bool
	handshakeInFlight           bool
	pendingConnected            []func()
	stopReachability            func()
	shouldReconnectOnForeground bool
}

// NewSession creates a Session attached to the given endpoint. The scheme
// must be one of ws, wss, http or https; the sibling URL for the other
// protocol is derived automatically.
func NewSession(serverAddress string, opts ...Option) (*Session, error) {
	socketURL, httpURL, err := deriveEndpoints(serverAddress)
	if err != nil {
		return nil, err
	}

	options := &Options{
		Logger:                newNullLogger(),
		RetryInterval:         defaultRetryInterval,
		ReconnectInterval:     defaultReconnectInterval,
		MaySendHandshakeAsync: true,
		AwaitOnlyHandshake:    true,
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Session{
		queue:                 NewSerialQueue(),
		stateMachine:          newSessionStateMachine(),
		dispatcher:            newMetaDispatcher(),
		subscriptions:         newSubscriptionRegistry(),
		ids:                   &messageIDGenerator{},
		logger:                options.Logger,
		reachability:          options.Reachability,
		socketURL:             socketURL,
		httpURL:               httpURL,
		state:                 &clientState{},
		handshakeExt:          options.HandshakeExt,
		maySendHandshakeAsync: options.MaySendHandshakeAsync,
		awaitOnlyHandshake:    options.AwaitOnlyHandshake,
	}
	s.ownedQueues = append(s.ownedQueues, s.queue)
	s.retryInterval.Store(int64(options.RetryInterval))
	s.reconnectInterval.Store(int64(options.ReconnectInterval))

	delegateQueue := options.DelegateQueue
	if delegateQueue == nil {
		q := NewSerialQueue()
		s.ownedQueues = append(s.ownedQueues, q)
		delegateQueue = q
	}
	s.delegate = &delegateProxy{delegate: options.Delegate, queue: delegateQueue}

	s.callbackQueue = options.CallbackQueue
	if s.callbackQueue == nil {
		q := NewSerialQueue()
		s.ownedQueues = append(s.ownedQueues, q)
		s.callbackQueue = q
	}

	s.transport = options.Transport
	if s.transport == nil {
		s.transport = NewWebSocketTransport(options.Dialer)
	}
	s.transport.Bind(&transportSink{s})

	s.handshake, err = newHTTPHandshake(options.HTTPClient, s.httpURL)
	if err != nil {
		return nil, err
	}

	s.dispatcher.setHandler(MetaHandshake, s.handleHandshakeReply)
	s.dispatcher.setHandler(MetaConnect, s.handleConnectReply)
	s.dispatcher.setHandler(MetaSubscribe, s.handleSubscribeReply)
	s.dispatcher.setHandler(MetaUnsubscribe, s.handleUnsubscribeReply)
	s.dispatcher.setHandler(MetaDisconnect, s.handleDisconnectReply)

	return s, nil
}

func deriveEndpoints(serverAddress string) (socketURL, httpURL *url.URL, err error) {
	u, err := url.Parse(serverAddress)
	if err != nil {
		return nil, nil, err
	}

	sibling := *u
	switch u.Scheme {
	case "ws":
		sibling.Scheme = "http"
		return u, &sibling, nil
	case "wss":
		sibling.Scheme = "https"
		return u, &sibling, nil
	case "http":
		sibling.Scheme = "ws"
		return &sibling, u, nil
	case "https":
		sibling.Scheme = "wss"
		return &sibling, u, nil
	default:
		return nil, nil, fmt.Errorf("unsupported scheme %q in server address", u.Scheme)
	}
}

// Connect starts the session: it opens the socket, performs the handshake
// and, once the session is established, runs onSuccess on the callback
// queue. A non-nil ext is recorded as the connection extension sent on
// every /meta/connect. Both arguments may be nil.
func (s *Session) Connect(ext Ext, onSuccess func()) {
	s.queue.Dispatch(func() {
		var cb func()
		if onSuccess != nil {
			cb = func() { s.callbackQueue.Dispatch(onSuccess) }
		}
		s.connect(ext, cb)
	})
}

// Disconnect ends the session. If the handshake is still in flight, the
// disconnect is deferred until its reply arrives so the server learns the
// session's identity is going away.
func (s *Session) Disconnect() {
	s.queue.Dispatch(s.disconnect)
}

// Reconnect re-runs the connect sequence and restores every subscription
// that was active before.
func (s *Session) Reconnect() {
	s.queue.Dispatch(s.reconnect)
}

// IsConnected reports whether the session is fully established
func (s *Session) IsConnected() bool {
	return s.stateMachine.IsConnected()
}

// IsConnecting reports whether a handshake or connection attempt is in
// flight
func (s *Session) IsConnecting() bool {
	return s.stateMachine.IsConnecting()
}

// IsReconnecting reports whether a reconnect sequence is underway
func (s *Session) IsReconnecting() bool {
	return s.reconnecting.Load()
}

// State returns the current lifecycle state of the session
func (s *Session) State() SessionState {
	return s.stateMachine.CurrentState()
}

// ClientID returns the server-assigned session identity, or the empty
// string before the handshake succeeded.
func (s *Session) ClientID() string {
	return s.state.GetClientID()
}

// ConnectionType returns the negotiated transport name
func (s *Session) ConnectionType() string {
	return s.state.GetConnectionType()
}

// RetryInterval returns the current keep-alive period
func (s *Session) RetryInterval() time.Duration {
	return time.Duration(s.retryInterval.Load())
}

func (s *Session) setRetryInterval(interval time.Duration) {
	s.retryInterval.Store(int64(interval))
}

// ReconnectInterval returns the post-failure reconnect delay
func (s *Session) ReconnectInterval() time.Duration {
	return time.Duration(s.reconnectInterval.Load())
}

// Subscribe registers a callback for a channel and requests the
// subscription from the server.
func (s *Session) Subscribe(channel Channel, callback MessageCallback, ext Ext) {
	s.SubscribeMany([]Channel{channel}, callback, ext)
}

// SubscribeMany registers one shared callback for several channels and
// requests them from the server in a single aggregated envelope.
func (s *Session) SubscribeMany(channels []Channel, callback MessageCallback, ext Ext) {
	s.queue.Dispatch(func() { s.subscribe(channels, callback, ext) })
}

// Unsubscribe removes the local subscription eagerly and tells the server.
func (s *Session) Unsubscribe(channel Channel) {
	s.UnsubscribeMany([]Channel{channel})
}

// UnsubscribeMany removes several local subscriptions eagerly and tells
// the server in a single aggregated envelope.
func (s *Session) UnsubscribeMany(channels []Channel) {
	s.queue.Dispatch(func() { s.unsubscribe(channels) })
}

// UnsubscribeAll asks the server to drop every subscription. Local entries
// are removed when the acknowledgement arrives.
func (s *Session) UnsubscribeAll() {
	s.queue.Dispatch(s.unsubscribeAll)
}

// Publish sends a data payload to an application channel.
func (s *Session) Publish(data interface{}, channel Channel, ext Ext) {
	s.queue.Dispatch(func() { s.publish(data, channel, ext) })
}

// Suspend tears the session down when the application is backgrounded,
// remembering whether to restore it on Resume. Wire it to the platform's
// lifecycle notifications.
func (s *Session) Suspend() {
	s.queue.Dispatch(func() {
		active := s.stateMachine.IsConnected() || s.stateMachine.IsConnecting()
		s.shouldReconnectOnForeground = active
		if active {
			s.disconnect()
		}
	})
}

// Resume restores a session that Suspend tore down.
func (s *Session) Resume() {
	s.queue.Dispatch(func() {
		if !s.shouldReconnectOnForeground {
			return
		}
		s.shouldReconnectOnForeground = false
		s.reconnect()
	})
}

// SubscribedChannels returns the set of locally subscribed channels
func (s *Session) SubscribedChannels() []Channel {
	return s.subscriptions.channels()
}

// UseExtension adds the provided MessageExtender to the list of known
// extensions. Register extensions before calling Connect.
func (s *Session) UseExtension(ext MessageExtender) error {
	for _, registered := range s.exts {
		if ext == registered {
			return AlreadyRegisteredError{ext}
		}
	}
	s.exts = append(s.exts, ext)
	return nil
}

// Close releases the session's resources. The session cannot be used
// afterwards.
func (s *Session) Close() {
	s.transport.Close()
	for _, q := range s.ownedQueues {
		q.Stop()
	}
}

// transportSink serializes transport events onto the session's worker
// queue.
type transportSink struct {
	s *Session
}

func (t *transportSink) TransportOpened() {
	t.s.queue.Dispatch(t.s.handleTransportOpened)
}

func (t *transportSink) TransportReceivedText(text string) {
	t.s.queue.Dispatch(func() { t.s.handleText(text) })
}

func (t *transportSink) TransportClosed(code int, reason string, wasClean bool) {
	t.s.queue.Dispatch(func() { t.s.handleTransportClosed(code, reason, wasClean) })
}

func (t *transportSink) TransportFailed(err error) {
	t.s.queue.Dispatch(func() { t.s.handleTransportFailed(err) })
}

// connect runs on the worker queue. onSuccess, when non-nil, also runs on
// the worker queue; the public wrapper re-dispatches user callbacks.
func (s *Session) connect(ext Ext, onSuccess func()) {
	logger := s.logger.WithField("at", "connect")
	if s.stateMachine.IsConnected() || s.stateMachine.IsConnecting() {
		logger.Debug("connect requested but session already underway")
		return
	}

	if ext != nil {
		s.connectionExt = ext
	}
	s.closingByUser = false

	if onSuccess != nil {
		target := MetaConnect
		if s.awaitOnlyHandshake {
			target = MetaHandshake
		}
		s.installConnectCallback(target, onSuccess)
	}

	if err := s.stateMachine.ProcessEvent(handshakeSent); err != nil {
		s.fail(HandshakeFailedError{err})
		return
	}

	logger.Debug("starting")
	if s.transport.IsOpen() {
		s.sendHandshakeSocket()
		return
	}
	s.transport.Open(s.socketURL)
	if s.maySendHandshakeAsync && s.handshake != nil {
		s.sendHandshakeAsync()
	}
}

// installConnectCallback arms a one-shot on the chosen meta channel that
// fires onSuccess once the session is established. The one-shot survives
// transient failures by re-chaining itself until the session either
// connects or is torn down on purpose.
func (s *Session) installConnectCallback(target Channel, onSuccess func()) {
	var once metaHandler
	once = func(*Message) {
		switch {
		case s.stateMachine.IsConnected():
			onSuccess()
		case s.closingByUser || s.stateMachine.CurrentState() == StateDisconnecting:
			// the user tore the session down before it connected
		case s.stateMachine.CurrentState() == StateConnecting:
			// handshake acknowledged but the socket is still opening
			s.pendingConnected = append(s.pendingConnected, onSuccess)
		default:
			s.dispatcher.chainOnce(target, once)
		}
	}
	s.dispatcher.chainOnce(target, once)
}

func (s *Session) disconnect() {
	switch s.stateMachine.CurrentState() {
	case StateDisconnected, StateDisconnecting:
		return
	}
	s.closingByUser = true
	s.teardownReachability()

	clientID := s.state.GetClientID()
	if clientID == "" {
		// no identity yet: intercept the next handshake reply and finish
		// the disconnect with the fresh clientId
		s.dispatcher.chainOnce(MetaHandshake, func(*Message) { s.disconnect() })
		return
	}

	if err := s.stateMachine.ProcessEvent(disconnectSent); err != nil {
		s.fail(DisconnectFailedError{err})
		return
	}

	builder := NewDisconnectRequestBuilder()
	builder.AddClientID(clientID)
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(DisconnectFailedError{err})
		return
	}
	if !s.sendMessage(m) {
		// nothing to say goodbye over; finish locally
		s.finishDisconnect(nil)
	}
}

func (s *Session) finishDisconnect(m *Message) {
	_ = s.stateMachine.ProcessEvent(disconnectCompleted)
	s.state.SetClientID("")
	s.pendingConnected = nil
	s.transport.Close()
	s.delegate.disconnected(s, m, nil)
}

func (s *Session) reconnect() {
	if s.reconnecting.Load() {
		return
	}
	if s.stateMachine.IsConnected() || s.stateMachine.IsConnecting() ||
		s.stateMachine.CurrentState() == StateDisconnecting {
		return
	}

	entries := s.subscriptions.entries()
	s.reconnecting.Store(true)
	s.connect(s.connectionExt, func() {
		s.resubscribe(entries)
		s.reconnecting.Store(false)
	})
}

// resubscribe re-issues /meta/subscribe for every preserved entry
// directly, bypassing the registry bookkeeping that already holds them.
func (s *Session) resubscribe(entries []*subscriptionEntry) {
	clientID := s.state.GetClientID()
	for _, entry := range entries {
		if len(entry.channels) == 0 {
			continue
		}
		builder := NewSubscribeRequestBuilder()
		builder.AddClientID(clientID)
		for _, c := range entry.channels {
			if err := builder.AddSubscription(c); err != nil {
				s.fail(SubscriptionFailedError{entry.channels, err})
				return
			}
		}
		builder.AddExt(entry.ext)
		builder.AddID(s.ids.next())
		m, err := builder.Build()
		if err != nil {
			s.fail(SubscriptionFailedError{entry.channels, err})
			return
		}
		s.sendMessage(m)
	}
}

func (s *Session) subscribe(channels []Channel, callback MessageCallback, ext Ext) {
	if _, err := s.subscriptions.add(channels, callback, ext); err != nil {
		s.fail(SubscriptionFailedError{channels, err})
		return
	}

	if s.stateMachine.IsConnected() && s.state.GetClientID() != "" {
		s.sendSubscribe(channels, ext)
		return
	}
	// not established yet; issue the request once the session is up
	s.pendingConnected = append(s.pendingConnected, func() {
		s.sendSubscribe(channels, ext)
	})
}

func (s *Session) sendSubscribe(channels []Channel, ext Ext) {
	builder := NewSubscribeRequestBuilder()
	builder.AddClientID(s.state.GetClientID())
	for _, c := range channels {
		if err := builder.AddSubscription(c); err != nil {
			s.fail(SubscriptionFailedError{channels, err})
			return
		}
	}
	builder.AddExt(ext)
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(SubscriptionFailedError{channels, err})
		return
	}
	s.sendMessage(m)
}

func (s *Session) unsubscribe(channels []Channel) {
	// local removal is eager; the acknowledgement is informational
	s.subscriptions.remove(channels)

	clientID := s.state.GetClientID()
	if clientID == "" {
		return
	}
	builder := NewUnsubscribeRequestBuilder()
	builder.AddClientID(clientID)
	for _, c := range channels {
		if err := builder.AddSubscription(c); err != nil {
			s.fail(UnsubscribeFailedError{channels, err})
			return
		}
	}
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(UnsubscribeFailedError{channels, err})
		return
	}
	s.sendMessage(m)
}

func (s *Session) unsubscribeAll() {
	channels := s.subscriptions.channels()
	if len(channels) == 0 {
		return
	}
	clientID := s.state.GetClientID()
	if clientID == "" {
		return
	}
	builder := NewUnsubscribeRequestBuilder()
	builder.AddClientID(clientID)
	for _, c := range channels {
		if err := builder.AddSubscription(c); err != nil {
			s.fail(UnsubscribeFailedError{channels, err})
			return
		}
	}
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(UnsubscribeFailedError{channels, err})
		return
	}
	// local entries are cleared by the acknowledgement handler
	s.sendMessage(m)
}

func (s *Session) publish(data interface{}, channel Channel, ext Ext) {
	clientID := s.state.GetClientID()
	if !s.stateMachine.IsConnected() || clientID == "" {
		s.fail(ErrClientNotConnected)
		return
	}

	builder := NewPublishRequestBuilder()
	if err := builder.AddChannel(channel); err != nil {
		s.fail(err)
		return
	}
	builder.AddClientID(clientID)
	builder.AddData(data)
	builder.AddExt(ext)
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(err)
		return
	}
	s.sendMessage(m)
}

// sendMessage encodes one envelope and writes it to the socket. It reports
// whether the write happened; failures surface through the delegate.
func (s *Session) sendMessage(m *Message) bool {
	for _, ext := range s.exts {
		ext.Outgoing(m)
	}
	if !s.transport.IsOpen() {
		s.fail(ErrSocketNotOpen)
		return false
	}
	payload, err := encodeSocketPayload(m)
	if err != nil {
		s.fail(err)
		return false
	}
	if err := s.transport.SendText(payload); err != nil {
		s.fail(err)
		return false
	}
	return true
}

func (s *Session) buildHandshake() (*Message, error) {
	builder := NewHandshakeRequestBuilder()
	if err := builder.AddVersion(protocolVersion); err != nil {
		return nil, err
	}
	if err := builder.AddMinimumVersion(protocolMinimumVersion); err != nil {
		return nil, err
	}
	if err := builder.AddSupportedConnectionType(ConnectionTypeWebsocket); err != nil {
		return nil, err
	}
	builder.AddExt(s.handshakeExt)
	builder.AddID(s.ids.next())
	return builder.Build()
}

func (s *Session) sendHandshakeSocket() {
	m, err := s.buildHandshake()
	if err != nil {
		s.fail(HandshakeFailedError{err})
		return
	}
	s.sendMessage(m)
}

// sendHandshakeAsync posts the handshake over HTTP in parallel with the
// socket opening. The reply batch is routed like any inbound frame.
func (s *Session) sendHandshakeAsync() {
	m, err := s.buildHandshake()
	if err != nil {
		s.fail(HandshakeFailedError{err})
		return
	}
	for _, ext := range s.exts {
		ext.Outgoing(m)
	}
	s.handshakeInFlight = true

	go func() {
		ms, err := s.handshake.post(context.Background(), m)
		s.queue.Dispatch(func() {
			s.handshakeInFlight = false
			if err != nil {
				s.fail(HandshakeFailedError{err})
				s.teardown(nil, err)
				s.recoverFromTransportError(err)
				return
			}
			for i := range ms {
				s.route(&ms[i])
			}
		})
	}()
}

// route implements the dispatch rule for one inbound message: advice
// first, then the meta-channel chains, then subscription callbacks.
func (s *Session) route(m *Message) {
	for _, ext := range s.exts {
		ext.Incoming(m)
	}

	if m.Advice != nil {
		s.applyAdvice(m)
	}

	if m.Channel.IsKnownMeta() {
		s.dispatcher.handle(m)
		return
	}

	if m.Channel.Type() == MetaChannel {
		s.fail(UnhandledMetaChannelError{m.Channel})
		return
	}

	if entry := s.subscriptions.lookup(m.Channel); entry != nil {
		if m.Data == nil || entry.callback == nil {
			return
		}
		callback := entry.callback
		channel := m.Channel
		data := m.Data
		s.callbackQueue.Dispatch(func() { callback(channel, data) })
		return
	}

	s.delegate.receivedUnexpectedMessage(s, m)
}

func (s *Session) handleText(text string) {
	ms, err := decodePayload([]byte(text))
	if err != nil {
		s.fail(err)
		return
	}
	for i := range ms {
		s.route(&ms[i])
	}
}

func (s *Session) handleTransportOpened() {
	switch s.stateMachine.CurrentState() {
	case StateHandshaking:
		if !s.handshakeInFlight {
			s.sendHandshakeSocket()
		}
	case StateConnecting:
		s.establishConnection()
	}
}

func (s *Session) handleTransportClosed(code int, reason string, wasClean bool) {
	st := s.stateMachine.CurrentState()
	if st == StateDisconnected {
		return
	}

	_ = s.stateMachine.ProcessEvent(connectionLost)
	s.state.SetClientID("")
	s.pendingConnected = nil

	if st == StateDisconnecting || (wasClean && reason == "") {
		s.delegate.disconnected(s, nil, nil)
		return
	}

	err := SocketClosedError{code, reason, wasClean}
	s.fail(err)
	s.delegate.disconnected(s, nil, err)
}

func (s *Session) handleHandshakeReply(m *Message) {
	logger := s.logger.WithField("at", "handshake")

	if !m.Successful {
		s.fail(newHandshakeError(m.Error))
		if m.Advice.ShouldHandshake() && s.stateMachine.CurrentState() == StateHandshaking {
			// the advice handler already queued a fresh attempt
			return
		}
		s.teardown(m, nil)
		return
	}

	if len(m.SupportedConnectionTypes) > 0 {
		supported := false
		for _, ct := range m.SupportedConnectionTypes {
			if ct == s.transport.Name() {
				supported = true
				break
			}
		}
		if !supported {
			s.fail(NoCommonConnectionTypeError{m.SupportedConnectionTypes})
			s.teardown(m, nil)
			return
		}
	}

	s.state.SetClientID(m.ClientID)
	s.state.SetConnectionType(s.transport.Name())
	if err := s.stateMachine.ProcessEvent(handshakeSucceeded); err != nil {
		logger.WithError(err).Debug("stale handshake reply")
		return
	}
	logger.WithField("clientId", m.ClientID).Debug("handshake acknowledged")

	if s.transport.IsOpen() {
		s.establishConnection()
	}
}

func (s *Session) establishConnection() {
	if err := s.stateMachine.ProcessEvent(connectionEstablished); err != nil {
		return
	}
	s.logger.WithField("at", "connect").Debug("session established")
	s.scheduleKeepAlive()

	pending := s.pendingConnected
	s.pendingConnected = nil
	for _, fn := range pending {
		fn()
	}

	s.delegate.connected(s)
}

func (s *Session) handleConnectReply(m *Message) {
	if m.Successful {
		s.scheduleKeepAlive()
		return
	}

	// advice was applied before this handler ran
	switch {
	case m.Advice.ShouldRetry():
		s.scheduleKeepAlive()
	case m.Advice.ShouldHandshake(), m.Advice.MustNotRetryOrHandshake():
		// the advice handler owns the outcome
	default:
		s.fail(ConnectionFailedError{ErrFailedToConnect})
	}
}

func (s *Session) handleSubscribeReply(m *Message) {
	if m.Successful {
		for _, c := range m.Subscription {
			s.delegate.subscriptionSucceeded(s, c)
		}
		return
	}
	s.fail(SubscriptionFailedError{
		Channels: m.Subscription,
		Err:      newSubscribeError(m.Error),
	})
}

func (s *Session) handleUnsubscribeReply(m *Message) {
	if m.Successful {
		s.subscriptions.remove(m.Subscription)
		return
	}
	s.fail(UnsubscribeFailedError{
		Channels: m.Subscription,
		Err:      newUnsubscribeError(m.Error),
	})
}

func (s *Session) handleDisconnectReply(m *Message) {
	if !m.Successful {
		s.fail(DisconnectFailedError{nil})
	}
	s.finishDisconnect(m)
}

// scheduleKeepAlive arms the single deferred /meta/connect. The task
// re-checks the session on firing so stale timers are harmless.
func (s *Session) scheduleKeepAlive() {
	if s.keepAlivePending {
		return
	}
	s.keepAlivePending = true
	s.queue.performAfter(s.RetryInterval(), func() {
		s.keepAlivePending = false
		if !s.stateMachine.IsConnected() || s.state.GetClientID() == "" {
			return
		}
		s.sendConnect()
	})
}

func (s *Session) sendConnect() {
	builder := NewConnectRequestBuilder()
	builder.AddClientID(s.state.GetClientID())
	if err := builder.AddConnectionType(s.state.GetConnectionType()); err != nil {
		s.fail(ConnectionFailedError{err})
		return
	}
	builder.AddExt(s.connectionExt)
	builder.AddID(s.ids.next())
	m, err := builder.Build()
	if err != nil {
		s.fail(ConnectionFailedError{err})
		return
	}
	s.sendMessage(m)
}

// teardown reverts the session to DISCONNECTED after a fatal condition.
func (s *Session) teardown(m *Message, err error) {
	_ = s.stateMachine.ProcessEvent(connectionLost)
	s.state.SetClientID("")
	s.pendingConnected = nil
	s.reconnecting.Store(false)
	s.transport.Close()
	s.delegate.disconnected(s, m, err)
}

func (s *Session) fail(err error) {
	s.logger.WithError(err).Debug("session error")
	s.delegate.failed(s, err)
}

// clientState guards the pieces of session identity read from outside the
// worker queue.
type clientState struct {
	clientID       string
	connectionType string
	lock           sync.RWMutex
}

func (cs *clientState) GetClientID() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	return cs.clientID
}

func (cs *clientState) SetClientID(clientID string) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.clientID = clientID
}

func (cs *clientState) GetConnectionType() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()
	return cs.connectionType
}

func (cs *clientState) SetConnectionType(connectionType string) {
	cs.lock.Lock()
	defer cs.lock.Unlock()
	cs.connectionType = connectionType
}
