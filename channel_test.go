package socketclient

import (
	"testing"
)

func TestChannelType(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  ChannelType
	}{
		{
			name:  "valid meta channel",
			input: "/meta/connect",
			want:  MetaChannel,
		},
		{
			name:  "invalid meta channel",
			input: "meta/connect",
			want:  BroadcastChannel,
		},
		{
			name:  "valid service channel",
			input: "/service/chat",
			want:  ServiceChannel,
		},
		{
			name:  "broadcast channel",
			input: "/foo/bar",
			want:  BroadcastChannel,
		},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			got := tc.input.Type()
			if tc.want != got {
				t.Errorf("unexpected channel type got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestChannelIsKnownMeta(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  bool
	}{
		{"handshake", MetaHandshake, true},
		{"connect", MetaConnect, true},
		{"disconnect", MetaDisconnect, true},
		{"subscribe", MetaSubscribe, true},
		{"unsubscribe", MetaUnsubscribe, true},
		{"unknown meta channel", "/meta/ping", false},
		{"broadcast channel", "/foo/bar", false},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.input.IsKnownMeta(); got != tc.want {
				t.Errorf("expected IsKnownMeta() == %v, got %v", tc.want, got)
			}
		})
	}
}

func TestChannelHasWildcard(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  bool
	}{
		{
			name:  "no wildcard",
			input: "/meta/connect",
			want:  false,
		},
		{
			name:  "single wildcard",
			input: "/foo/*",
			want:  true,
		},
		{
			name:  "double wildcard",
			input: "/foo/**",
			want:  true,
		},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.input.HasWildcard(); got != tc.want {
				t.Errorf("expected HasWildcard() == %v, got %v", tc.want, got)
			}
		})
	}
}

func TestChannelIsValid(t *testing.T) {
	tests := []struct {
		name  string
		input Channel
		want  bool
	}{
		{"simple path", "/foo/bar", true},
		{"meta path", "/meta/connect", true},
		{"trailing single wildcard", "/foo/*", true},
		{"trailing double wildcard", "/foo/**", true},
		{"missing leading slash", "foo/bar", false},
		{"wildcard in the middle", "/foo/*/bar", false},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.input.IsValid(); got != tc.want {
				t.Errorf("expected IsValid() == %v, got %v", tc.want, got)
			}
		})
	}
}

func TestChannelMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern Channel
		other   Channel
		want    bool
	}{
		{"exact match", "/foo/bar", "/foo/bar", true},
		{"exact mismatch", "/foo/bar", "/foo/baz", false},
		{"single wildcard matches one segment", "/foo/*", "/foo/bar", true},
		{"single wildcard rejects deeper paths", "/foo/*", "/foo/bar/baz", false},
		{"double wildcard matches deeper paths", "/foo/**", "/foo/bar/baz", true},
		{"wildcard rejects different prefix", "/foo/*", "/bar/baz", false},
	}

	for _, testCase := range tests {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pattern.Match(tc.other); got != tc.want {
				t.Errorf("expected %q.Match(%q) == %v, got %v", tc.pattern, tc.other, tc.want, got)
			}
		})
	}
}
