package socketclient

import (
	"reflect"
	"sort"
	"testing"
)

func TestSubscriptionRegistry_Add(t *testing.T) {
	r := newSubscriptionRegistry()
	entry, err := r.add([]Channel{"/foo/bar"}, nil, nil)
	if err != nil {
		t.Fatalf("expected successful addition but got err %q", err)
	}
	if got := r.lookup("/foo/bar"); got != entry {
		t.Error("channel was not registered properly")
	}
}

func TestSubscriptionRegistry_AddInvalidChannel(t *testing.T) {
	r := newSubscriptionRegistry()
	if _, err := r.add([]Channel{"foo/bar"}, nil, nil); err == nil {
		t.Error("expected a channel without a leading slash to be rejected")
	}
	if r.len() != 0 {
		t.Error("expected no channels after a rejected add")
	}
}

func TestSubscriptionRegistry_SharedEntry(t *testing.T) {
	r := newSubscriptionRegistry()
	channels := []Channel{"/foo/bar", "/foo/baz"}
	entry, err := r.add(channels, nil, Ext{"k": "v"})
	if err != nil {
		t.Fatalf("unable to add subscriptions for test: %q", err)
	}

	if got := r.lookup("/foo/baz"); got != entry {
		t.Error("expected both channels to share one entry")
	}

	r.remove([]Channel{"/foo/bar"})
	if got := r.lookup("/foo/bar"); got != nil {
		t.Error("expected /foo/bar to be removed")
	}
	if got := r.lookup("/foo/baz"); got != entry {
		t.Error("expected /foo/baz to survive removal of its sibling")
	}
	if want, got := []Channel{"/foo/baz"}, entry.channels; !reflect.DeepEqual(want, got) {
		t.Errorf("expected entry channels %v, got %v", want, got)
	}

	r.remove([]Channel{"/foo/baz"})
	if r.len() != 0 {
		t.Error("expected registry to be empty after removing the last channel")
	}
}

func TestSubscriptionRegistry_SubscribeUnsubscribeRoundTrip(t *testing.T) {
	r := newSubscriptionRegistry()
	before := r.channels()

	if _, err := r.add([]Channel{"/foo/bar"}, nil, nil); err != nil {
		t.Fatalf("unable to add subscription for test: %q", err)
	}
	r.remove([]Channel{"/foo/bar"})

	after := r.channels()
	if len(before) != len(after) {
		t.Errorf("subscribe then unsubscribe changed the registry; before %v, after %v", before, after)
	}
}

func TestSubscriptionRegistry_WildcardLookup(t *testing.T) {
	r := newSubscriptionRegistry()
	entry, err := r.add([]Channel{"/chat/*"}, nil, nil)
	if err != nil {
		t.Fatalf("unable to add subscription for test: %q", err)
	}

	if got := r.lookup("/chat/room1"); got != entry {
		t.Error("expected wildcard subscription to match /chat/room1")
	}
	if got := r.lookup("/chat/room1/private"); got != nil {
		t.Error("expected single wildcard to not match deeper paths")
	}
}

func TestSubscriptionRegistry_Channels(t *testing.T) {
	r := newSubscriptionRegistry()
	if _, err := r.add([]Channel{"/a", "/b"}, nil, nil); err != nil {
		t.Fatalf("unable to add subscriptions for test: %q", err)
	}

	got := r.channels()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if want := []Channel{"/a", "/b"}; !reflect.DeepEqual(want, got) {
		t.Errorf("expected channels %v, got %v", want, got)
	}
}

func TestSubscriptionRegistry_Entries(t *testing.T) {
	r := newSubscriptionRegistry()
	if _, err := r.add([]Channel{"/a", "/b"}, nil, nil); err != nil {
		t.Fatalf("unable to add subscriptions for test: %q", err)
	}
	if _, err := r.add([]Channel{"/c"}, nil, nil); err != nil {
		t.Fatalf("unable to add subscriptions for test: %q", err)
	}

	if got := len(r.entries()); got != 2 {
		t.Errorf("expected 2 unique entries, got %d", got)
	}
}
