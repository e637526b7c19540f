// Package socketclient implements the client side of the Bayeux 1.0
// publish/subscribe protocol over WebSocket, with an HTTP POST path for
// the initial handshake.
//
// A Session is created attached to an endpoint and driven entirely
// asynchronously: every public call returns immediately and outcomes are
// reported through a SessionDelegate.
//
//	session, err := socketclient.NewSession("wss://example.com/bayeux")
//	if err != nil {
//		log.Fatal(err)
//	}
//	session.Connect(nil, func() {
//		log.Println("connected")
//	})
//
// Subscriptions pair a channel path with a callback that receives the
// data payload of every message published on it
//
//	session.Subscribe("/chat/room1", func(channel socketclient.Channel, data json.RawMessage) {
//		log.Printf("%s: %s", channel, data)
//	}, nil)
//
// Servers steer reconnection through advice attached to their replies;
// the session obeys it, and a delegate may override the advised retry
// interval or veto a re-handshake
//
//	type watcher struct {
//		socketclient.NopDelegate
//	}
//
//	func (watcher) Failed(s *socketclient.Session, err error) {
//		log.Printf("session error: %v", err)
//	}
//
//	session, err := socketclient.NewSession(
//		"wss://example.com/bayeux",
//		socketclient.WithDelegate(watcher{}),
//	)
//
// Extensions implementing the MessageExtender interface can decorate
// every envelope in both directions, most commonly to carry
// authentication tokens in the `ext` field.
package socketclient
