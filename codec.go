package socketclient

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// encodeSocketPayload serializes one outbound envelope for a WebSocket
// transport, which carries single JSON objects.
func encodeSocketPayload(m *Message) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", MalformedObjectDataError{err}
	}
	return string(raw), nil
}

// encodeHTTPPayload serializes one outbound envelope for the HTTP path,
// which carries one-element JSON arrays.
func encodeHTTPPayload(m *Message) ([]byte, error) {
	raw, err := json.Marshal([]*Message{m})
	if err != nil {
		return nil, MalformedObjectDataError{err}
	}
	return raw, nil
}

// decodePayload parses an inbound payload, which is always a JSON array of
// message objects. Anything else is malformed.
func decodePayload(data []byte) ([]Message, error) {
	messages := make([]Message, 0, 1)
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, MalformedJSONDataError{err}
	}
	return messages, nil
}

// messageIDGenerator mints correlation tokens unique within one session.
type messageIDGenerator struct {
	counter atomic.Uint64
}

// next produces the next opaque message id
func (g *messageIDGenerator) next() string {
	return fmt.Sprintf("msg_%.3f_%d", float64(time.Now().UnixNano())/float64(time.Second), g.counter.Add(1))
}
