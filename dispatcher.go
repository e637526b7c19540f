package socketclient

// metaHandler processes one reply on a meta channel.
type metaHandler func(*Message)

// metaDispatcher keeps one handler chain per meta channel. The head of a
// chain is either the permanent built-in handler for that channel or a
// one-shot interceptor installed with chainOnce.
//
// The dispatcher is only touched from the session's worker queue, which is
// what makes chainOnce atomic with respect to incoming messages.
type metaDispatcher struct {
	heads map[Channel]metaHandler
}

func newMetaDispatcher() *metaDispatcher {
	return &metaDispatcher{heads: make(map[Channel]metaHandler, len(metaChannels))}
}

// setHandler installs the permanent handler for a meta channel.
func (d *metaDispatcher) setHandler(c Channel, h metaHandler) {
	d.heads[c] = h
}

// chainOnce wraps the current head of a channel's chain with a one-shot
// handler. When the next reply on the channel arrives, the previous head is
// reinstalled and runs first, and then fn runs once with the processed
// reply. fn may chain itself again without duplicating the prior head.
func (d *metaDispatcher) chainOnce(c Channel, fn metaHandler) {
	prev := d.heads[c]
	d.heads[c] = func(m *Message) {
		d.heads[c] = prev
		if prev != nil {
			prev(m)
		}
		fn(m)
	}
}

// handle routes a message to the head of its channel's chain. It reports
// whether the channel had a chain at all.
func (d *metaDispatcher) handle(m *Message) bool {
	h, ok := d.heads[m.Channel]
	if !ok || h == nil {
		return false
	}
	h(m)
	return true
}
