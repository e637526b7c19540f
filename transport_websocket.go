package socketclient

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"gopkg.in/tomb.v2"
)

const defaultDialTimeout = 10 * time.Second

// WebSocketTransport is the default Transport, backed by a gorilla
// websocket connection with a dedicated read-loop goroutine.
type WebSocketTransport struct {
	dialer      *websocket.Dialer
	dialTimeout time.Duration
	events      TransportEvents

	mu   sync.Mutex
	conn *websocket.Conn
	t    *tomb.Tomb
	open atomic.Bool
}

// NewWebSocketTransport creates a WebSocketTransport. A nil dialer selects
// websocket.DefaultDialer.
func NewWebSocketTransport(dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocketTransport{
		dialer:      dialer,
		dialTimeout: defaultDialTimeout,
	}
}

// Bind implements Transport
func (t *WebSocketTransport) Bind(events TransportEvents) {
	t.events = events
}

// Name implements Transport
func (t *WebSocketTransport) Name() string {
	return ConnectionTypeWebsocket
}

// IsOpen implements Transport
func (t *WebSocketTransport) IsOpen() bool {
	return t.open.Load()
}

// Open implements Transport. Dialing and reading happen on a goroutine
// managed by a tomb; every outcome is reported through the bound events,
// except a dial or open that Close cuts short, which reports nothing.
func (t *WebSocketTransport) Open(u *url.URL) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil && t.t.Alive() {
		return
	}
	tb := new(tomb.Tomb)
	t.t = tb
	tb.Go(func() error {
		t.run(tb, u)
		return nil
	})
}

func (t *WebSocketTransport) run(tb *tomb.Tomb, u *url.URL) {
	ctx, cancel := context.WithTimeout(context.Background(), t.dialTimeout)
	conn, _, err := t.dialer.DialContext(ctx, u.String(), nil)
	cancel()
	if err != nil {
		select {
		case <-tb.Dying():
		default:
			t.events.TransportFailed(err)
		}
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	select {
	case <-tb.Dying():
		_ = conn.Close()
		return
	default:
	}

	t.open.Store(true)
	t.events.TransportOpened()

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			t.open.Store(false)
			select {
			case <-tb.Dying():
				t.events.TransportClosed(websocket.CloseNormalClosure, "", true)
			default:
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					clean := closeErr.Code == websocket.CloseNormalClosure
					t.events.TransportClosed(closeErr.Code, closeErr.Text, clean)
				} else {
					t.events.TransportFailed(err)
				}
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		t.events.TransportReceivedText(string(raw))
	}
}

// SendText implements Transport
func (t *WebSocketTransport) SendText(text string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil || !t.open.Load() {
		return ErrSocketNotOpen
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close implements Transport
func (t *WebSocketTransport) Close() {
	t.mu.Lock()
	conn := t.conn
	tb := t.t
	t.conn = nil
	t.mu.Unlock()

	t.open.Store(false)
	if tb != nil {
		tb.Kill(nil)
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		_ = conn.Close()
	}
}
