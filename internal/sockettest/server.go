// Package sockettest provides an in-process Bayeux server and transport
// for exercising sessions without a network.
package sockettest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shir/socketclient"
)

// Logger is the subset of testing.T the server logs through.
type Logger interface {
	Log(args ...any)
	Logf(format string, args ...any)
}

// Server implements the server half of the Bayeux exchange in memory. It
// hands out client ids, acknowledges subscribes and can be scripted to
// fail or attach advice.
type Server struct {
	log Logger

	mu                sync.Mutex
	clientID          string
	subs              map[socketclient.Channel]bool
	handshakeError    bool
	handshakesServed  int
	connectsServed    int
	nextConnectFails  bool
	nextConnectAdvice *socketclient.Advice
	connectionTypes   []string
}

// NewServer creates a Server logging through the given Logger.
func NewServer(logger Logger, opts ...ServerOpt) *Server {
	server := &Server{
		log:             logger,
		subs:            make(map[socketclient.Channel]bool),
		connectionTypes: []string{socketclient.ConnectionTypeWebsocket},
	}
	for _, opt := range opts {
		opt.apply(server)
	}
	return server
}

// ClientID returns the identity minted by the most recent handshake.
func (s *Server) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// HandshakesServed returns how many handshake requests were answered.
func (s *Server) HandshakesServed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakesServed
}

// ConnectsServed returns how many connect requests were answered.
func (s *Server) ConnectsServed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectsServed
}

// Subscribed reports whether the server saw a subscribe for the channel.
func (s *Server) Subscribed(c socketclient.Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[c]
}

// FailNextConnect makes the next connect reply unsuccessful, carrying the
// given advice (which may be nil).
func (s *Server) FailNextConnect(advice *socketclient.Advice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextConnectFails = true
	s.nextConnectAdvice = advice
}

// HandleMessage computes the reply batch for one inbound envelope.
func (s *Server) HandleMessage(m *socketclient.Message) []*socketclient.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Channel {
	case socketclient.MetaHandshake:
		s.handshakesServed++
		s.log.Logf("sockettest: serving handshake #%d", s.handshakesServed)
		if s.handshakeError {
			return []*socketclient.Message{{
				Channel: socketclient.MetaHandshake,
				ID:      m.ID,
				Error:   "402::handshake denied",
			}}
		}
		s.clientID = uuid.NewString()
		return []*socketclient.Message{{
			Channel:                  socketclient.MetaHandshake,
			Successful:               true,
			ClientID:                 s.clientID,
			ID:                       m.ID,
			Version:                  "1.0",
			SupportedConnectionTypes: s.connectionTypes,
		}}
	case socketclient.MetaConnect:
		s.connectsServed++
		if m.ClientID != s.clientID {
			return []*socketclient.Message{{
				Channel: socketclient.MetaConnect,
				ID:      m.ID,
				Error:   "401::unknown client",
			}}
		}
		if s.nextConnectFails {
			s.nextConnectFails = false
			advice := s.nextConnectAdvice
			s.nextConnectAdvice = nil
			return []*socketclient.Message{{
				Channel: socketclient.MetaConnect,
				ID:      m.ID,
				Error:   "408::connect refused",
				Advice:  advice,
			}}
		}
		return []*socketclient.Message{{
			Channel:    socketclient.MetaConnect,
			Successful: true,
			ClientID:   s.clientID,
			ID:         m.ID,
		}}
	case socketclient.MetaSubscribe:
		for _, c := range m.Subscription {
			s.subs[c] = true
		}
		return []*socketclient.Message{{
			Channel:      socketclient.MetaSubscribe,
			Successful:   true,
			ClientID:     m.ClientID,
			Subscription: m.Subscription,
			ID:           m.ID,
		}}
	case socketclient.MetaUnsubscribe:
		for _, c := range m.Subscription {
			delete(s.subs, c)
		}
		return []*socketclient.Message{{
			Channel:      socketclient.MetaUnsubscribe,
			Successful:   true,
			ClientID:     m.ClientID,
			Subscription: m.Subscription,
			ID:           m.ID,
		}}
	case socketclient.MetaDisconnect:
		return []*socketclient.Message{{
			Channel:    socketclient.MetaDisconnect,
			Successful: true,
			ClientID:   m.ClientID,
			ID:         m.ID,
		}}
	default:
		// publish: acknowledge and, when subscribed, deliver it back
		replies := []*socketclient.Message{{
			Channel:    m.Channel,
			Successful: true,
			ID:         m.ID,
		}}
		if s.subs[m.Channel] {
			replies = append(replies, &socketclient.Message{
				Channel: m.Channel,
				Data:    m.Data,
			})
		}
		return replies
	}
}

// ServerOpt configures a Server at construction time.
type ServerOpt interface {
	apply(*Server)
}

type serverOptFunc func(*Server)

func (f serverOptFunc) apply(s *Server) { f(s) }

// WithHandshakeError makes every handshake reply unsuccessful.
func WithHandshakeError() ServerOpt {
	return serverOptFunc(func(s *Server) {
		s.handshakeError = true
	})
}

// WithConnectionTypes overrides the transports the server advertises.
func WithConnectionTypes(types ...string) ServerOpt {
	return serverOptFunc(func(s *Server) {
		s.connectionTypes = types
	})
}

// Batch serializes messages the way a server frames them: as a JSON
// array.
func Batch(ms ...*socketclient.Message) string {
	raw, err := json.Marshal(ms)
	if err != nil {
		panic(fmt.Sprintf("sockettest: cannot marshal batch: %v", err))
	}
	return string(raw)
}
