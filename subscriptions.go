package socketclient

import (
	"encoding/json"
	"sync"
)

// MessageCallback receives the data payload of messages published on a
// subscribed channel. Callbacks run on the session's callback queue.
type MessageCallback func(channel Channel, data json.RawMessage)

// subscriptionEntry holds one callback registration. A single entry may be
// shared by several channels when they were subscribed together.
type subscriptionEntry struct {
	channels []Channel
	callback MessageCallback
	ext      Ext
}

// subscriptionRegistry maps channel paths to their callback entries and
// supports snapshotting for restoration after a reconnect.
type subscriptionRegistry struct {
	lock sync.RWMutex
	subs map[Channel]*subscriptionEntry
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{subs: make(map[Channel]*subscriptionEntry)}
}

// add installs one shared entry for the given channels. Every channel must
// begin with a slash.
func (r *subscriptionRegistry) add(channels []Channel, callback MessageCallback, ext Ext) (*subscriptionEntry, error) {
	if len(channels) == 0 {
		return nil, EmptySliceError("channels")
	}
	for _, c := range channels {
		if !c.IsValid() {
			return nil, InvalidChannelError{c}
		}
	}

	entry := &subscriptionEntry{
		channels: append([]Channel(nil), channels...),
		callback: callback,
		ext:      ext,
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	for _, c := range channels {
		r.subs[c] = entry
	}
	return entry, nil
}

// remove drops the given channels. When the last channel of a shared entry
// goes, the entry goes with it.
func (r *subscriptionRegistry) remove(channels []Channel) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, c := range channels {
		entry, ok := r.subs[c]
		if !ok {
			continue
		}
		delete(r.subs, c)

		kept := entry.channels[:0]
		for _, ec := range entry.channels {
			if ec != c {
				kept = append(kept, ec)
			}
		}
		entry.channels = kept
	}
}

// lookup finds the entry for a channel, preferring an exact match and
// falling back to wildcard subscriptions.
func (r *subscriptionRegistry) lookup(c Channel) *subscriptionEntry {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if entry, ok := r.subs[c]; ok {
		return entry
	}
	for sub, entry := range r.subs {
		if sub.HasWildcard() && sub.Match(c) {
			return entry
		}
	}
	return nil
}

// channels returns the currently subscribed channel set
func (r *subscriptionRegistry) channels() []Channel {
	r.lock.RLock()
	defer r.lock.RUnlock()
	cs := make([]Channel, 0, len(r.subs))
	for c := range r.subs {
		cs = append(cs, c)
	}
	return cs
}

// entries returns each live entry exactly once, for resubscription after a
// reconnect.
func (r *subscriptionRegistry) entries() []*subscriptionEntry {
	r.lock.RLock()
	defer r.lock.RUnlock()
	seen := make(map[*subscriptionEntry]struct{}, len(r.subs))
	es := make([]*subscriptionEntry, 0, len(r.subs))
	for _, entry := range r.subs {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		es = append(es, entry)
	}
	return es
}

func (r *subscriptionRegistry) len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.subs)
}
