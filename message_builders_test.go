package socketclient

import (
	"errors"
	"testing"
)

func TestHandshakeRequestBuilder_AddSupportedConnectionType(t *testing.T) {
	testCases := []struct {
		name      string
		ct        string
		shouldErr bool
	}{
		{
			"valid websocket",
			"websocket",
			false,
		},
		{
			"valid long-polling",
			"long-polling",
			false,
		},
		{
			"valid callback-polling",
			"callback-polling",
			false,
		},
		{
			"invalid connection type",
			"invalid-polling",
			true,
		},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			b := NewHandshakeRequestBuilder()
			err := b.AddSupportedConnectionType(tc.ct)
			if err != nil && !tc.shouldErr {
				t.Errorf("expected connection type %s to be valid but got err %q", tc.ct, err)
			}
			if err == nil && tc.shouldErr {
				t.Error("expected an error but didn't get one")
			}
		})
	}
}

func TestHandshakeRequestBuilder_AddVersion(t *testing.T) {
	testCases := []struct {
		name      string
		version   string
		shouldErr bool
	}{
		{"valid version 1.0", "1.0", false},
		{"valid version 1.0beta", "1.0beta", false},
		{"valid version 10.0", "10.0", false},
		{"invalid version .0", ".0", true},
		{"invalid version a.0", "a.0", true},
		{"invalid version (empty)", "", true},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			b := NewHandshakeRequestBuilder()
			err := b.AddVersion(tc.version)
			if err != nil && !tc.shouldErr {
				t.Errorf("expected version %q to be valid but got err %q", tc.version, err)
			}
			if err == nil && tc.shouldErr {
				t.Error("expected an error but didn't get one")
			}
		})
	}
}

func TestHandshakeRequestBuilder_Build(t *testing.T) {
	b := NewHandshakeRequestBuilder()
	if _, err := b.Build(); !errors.Is(err, ErrNoSupportedConnectionTypes) {
		t.Errorf("expected ErrNoSupportedConnectionTypes, got %v", err)
	}

	if err := b.AddSupportedConnectionType(ConnectionTypeWebsocket); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	if _, err := b.Build(); !errors.Is(err, ErrNoVersion) {
		t.Errorf("expected ErrNoVersion, got %v", err)
	}

	if err := b.AddVersion("1.0"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	if err := b.AddMinimumVersion("1.0beta"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	b.AddExt(Ext{"token": "x"})
	b.AddID("msg_1")

	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected a handshake message but got err %q", err)
	}
	if m.Channel != MetaHandshake {
		t.Errorf("expected channel %s, got %s", MetaHandshake, m.Channel)
	}
	if m.Version != "1.0" || m.MinimumVersion != "1.0beta" {
		t.Errorf("unexpected versions: %q / %q", m.Version, m.MinimumVersion)
	}
	if len(m.SupportedConnectionTypes) != 1 || m.SupportedConnectionTypes[0] != ConnectionTypeWebsocket {
		t.Errorf("unexpected supported connection types: %v", m.SupportedConnectionTypes)
	}
	if m.ID != "msg_1" {
		t.Errorf("expected id msg_1, got %q", m.ID)
	}
}

func TestConnectRequestBuilder_Build(t *testing.T) {
	b := NewConnectRequestBuilder()
	if _, err := b.Build(); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("expected ErrMissingClientID, got %v", err)
	}

	b.AddClientID("abc")
	if _, err := b.Build(); !errors.Is(err, ErrMissingConnectionType) {
		t.Errorf("expected ErrMissingConnectionType, got %v", err)
	}

	if err := b.AddConnectionType("invalid"); err == nil {
		t.Error("expected an invalid connection type to be rejected")
	}
	if err := b.AddConnectionType(ConnectionTypeWebsocket); err != nil {
		t.Fatalf("unexpected err %q", err)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected a connect message but got err %q", err)
	}
	if m.Channel != MetaConnect || m.ClientID != "abc" || m.ConnectionType != ConnectionTypeWebsocket {
		t.Errorf("unexpected connect message: %+v", m)
	}
}

func TestSubscribeRequestBuilder_Build(t *testing.T) {
	b := NewSubscribeRequestBuilder()
	b.AddClientID("abc")
	if err := b.AddSubscription("no-slash"); err == nil {
		t.Error("expected an invalid channel to be rejected")
	}
	if err := b.AddSubscription("/foo/bar"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	// duplicates collapse
	if err := b.AddSubscription("/foo/bar"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	if err := b.AddSubscription("/foo/baz"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected a subscribe message but got err %q", err)
	}
	if m.Channel != MetaSubscribe {
		t.Errorf("expected channel %s, got %s", MetaSubscribe, m.Channel)
	}
	if len(m.Subscription) != 2 {
		t.Errorf("expected one aggregated envelope with 2 subscriptions, got %v", m.Subscription)
	}
}

func TestUnsubscribeRequestBuilder_Build(t *testing.T) {
	b := NewUnsubscribeRequestBuilder()
	if _, err := b.Build(); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("expected ErrMissingClientID, got %v", err)
	}

	b.AddClientID("abc")
	if _, err := b.Build(); err == nil {
		t.Error("expected an empty subscription list to be rejected")
	}

	if err := b.AddSubscription("/foo/bar"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected an unsubscribe message but got err %q", err)
	}
	if m.Channel != MetaUnsubscribe || !m.Subscription.Contains("/foo/bar") {
		t.Errorf("unexpected unsubscribe message: %+v", m)
	}
}

func TestDisconnectRequestBuilder_Build(t *testing.T) {
	b := NewDisconnectRequestBuilder()
	if _, err := b.Build(); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("expected ErrMissingClientID, got %v", err)
	}

	b.AddClientID("abc")
	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected a disconnect message but got err %q", err)
	}
	if m.Channel != MetaDisconnect || m.ClientID != "abc" {
		t.Errorf("unexpected disconnect message: %+v", m)
	}
}

func TestPublishRequestBuilder_Build(t *testing.T) {
	b := NewPublishRequestBuilder()
	if err := b.AddChannel(MetaConnect); err == nil {
		t.Error("expected publishing on a meta channel to be rejected")
	}
	if err := b.AddChannel("/chat/room1"); err != nil {
		t.Fatalf("unexpected err %q", err)
	}

	if _, err := b.Build(); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("expected ErrMissingClientID, got %v", err)
	}

	b.AddClientID("abc")
	b.AddData(map[string]string{"text": "hello"})
	b.AddID("msg_2")
	m, err := b.Build()
	if err != nil {
		t.Fatalf("expected a publish message but got err %q", err)
	}
	if m.Channel != "/chat/room1" || m.ClientID != "abc" || m.ID != "msg_2" {
		t.Errorf("unexpected publish message: %+v", m)
	}
	if string(m.Data) != `{"text":"hello"}` {
		t.Errorf("unexpected publish data: %s", m.Data)
	}

	b.AddData(func() {})
	if _, err := b.Build(); err == nil {
		t.Error("expected an unencodable payload to be rejected")
	}
}
