package socketclient

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodePayload(t *testing.T) {
	testCases := []struct {
		name      string
		payload   string
		wantCount int
		shouldErr bool
	}{
		{
			"batch of two messages",
			`[{"channel":"/meta/connect","successful":true},{"channel":"/chat/room1","data":{"x":1}}]`,
			2,
			false,
		},
		{
			"empty batch",
			`[]`,
			0,
			false,
		},
		{
			"bare object is malformed",
			`{"channel":"/meta/connect"}`,
			0,
			true,
		},
		{
			"garbage is malformed",
			`not json at all`,
			0,
			true,
		},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			ms, err := decodePayload([]byte(tc.payload))
			if tc.shouldErr {
				if err == nil {
					t.Fatal("expected an error but didn't get one")
				}
				var malformed MalformedJSONDataError
				if !errors.As(err, &malformed) {
					t.Errorf("expected a MalformedJSONDataError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %q", err)
			}
			if len(ms) != tc.wantCount {
				t.Errorf("expected %d messages, got %d", tc.wantCount, len(ms))
			}
		})
	}
}

func TestEncodeSocketPayload(t *testing.T) {
	payload, err := encodeSocketPayload(&Message{Channel: "/chat/room1", ClientID: "abc"})
	if err != nil {
		t.Fatalf("unexpected encode error: %q", err)
	}
	if strings.HasPrefix(payload, "[") {
		t.Error("socket payloads must be single objects, not arrays")
	}

	var m map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("socket payload is not valid JSON: %q", err)
	}
	if m["channel"] != "/chat/room1" {
		t.Errorf("expected channel /chat/room1, got %v", m["channel"])
	}
	// absent ext and advice travel as explicit nulls
	for _, field := range []string{"ext", "advice"} {
		v, ok := m[field]
		if !ok {
			t.Errorf("expected %s field to be present", field)
		}
		if v != nil {
			t.Errorf("expected absent %s to encode as null, got %v", field, v)
		}
	}
}

func TestEncodeHTTPPayload(t *testing.T) {
	payload, err := encodeHTTPPayload(&Message{Channel: MetaHandshake, Version: "1.0"})
	if err != nil {
		t.Fatalf("unexpected encode error: %q", err)
	}

	var batch []map[string]interface{}
	if err := json.Unmarshal(payload, &batch); err != nil {
		t.Fatalf("HTTP payload is not a JSON array: %q", err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected a one-element batch, got %d elements", len(batch))
	}
	if batch[0]["channel"] != string(MetaHandshake) {
		t.Errorf("expected channel %s, got %v", MetaHandshake, batch[0]["channel"])
	}
}

func TestMessageIDGenerator(t *testing.T) {
	g := &messageIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.next()
		if !strings.HasPrefix(id, "msg_") {
			t.Fatalf("expected id to start with msg_, got %q", id)
		}
		if seen[id] {
			t.Fatalf("generator produced duplicate id %q", id)
		}
		seen[id] = true
	}
}
