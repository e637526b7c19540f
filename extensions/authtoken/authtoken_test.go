package authtoken

import (
	"testing"

	"github.com/shir/socketclient"
)

func TestExtension_Outgoing(t *testing.T) {
	testCases := []struct {
		name      string
		channel   socketclient.Channel
		wantToken bool
	}{
		{"handshake carries the token", socketclient.MetaHandshake, true},
		{"connect carries the token", socketclient.MetaConnect, true},
		{"subscribe is left alone", socketclient.MetaSubscribe, false},
		{"publish is left alone", "/chat/room1", false},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			e := New(StaticToken("sekrit"))
			m := &socketclient.Message{Channel: tc.channel}
			e.Outgoing(m)

			ext := m.GetExt(false)
			if tc.wantToken {
				if ext == nil || ext[ExtensionName] != "sekrit" {
					t.Errorf("expected token in ext, got %v", ext)
				}
				return
			}
			if ext != nil {
				t.Errorf("expected ext to be untouched, got %v", ext)
			}
		})
	}
}

func TestExtension_EmptyTokenSkipped(t *testing.T) {
	e := New(StaticToken(""))
	m := &socketclient.Message{Channel: socketclient.MetaHandshake}
	e.Outgoing(m)
	if ext := m.GetExt(false); ext != nil {
		t.Errorf("expected an empty token to leave ext untouched, got %v", ext)
	}
}

func TestExtension_SourceConsultedEachTime(t *testing.T) {
	source := &rotatingSource{tokens: []string{"first", "second"}}
	e := New(source)

	m1 := &socketclient.Message{Channel: socketclient.MetaConnect}
	e.Outgoing(m1)
	m2 := &socketclient.Message{Channel: socketclient.MetaConnect}
	e.Outgoing(m2)

	if got := m1.GetExt(false)[ExtensionName]; got != "first" {
		t.Errorf("expected first token, got %v", got)
	}
	if got := m2.GetExt(false)[ExtensionName]; got != "second" {
		t.Errorf("expected second token, got %v", got)
	}
}

type rotatingSource struct {
	tokens []string
	calls  int
}

func (r *rotatingSource) Token() string {
	token := r.tokens[r.calls%len(r.tokens)]
	r.calls++
	return token
}
