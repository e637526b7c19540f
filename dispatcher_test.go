package socketclient

import "testing"

func TestMetaDispatcher_PermanentHandler(t *testing.T) {
	d := newMetaDispatcher()
	calls := 0
	d.setHandler(MetaConnect, func(*Message) { calls++ })

	m := &Message{Channel: MetaConnect}
	if !d.handle(m) {
		t.Fatal("expected the message to be handled")
	}
	if !d.handle(m) {
		t.Fatal("expected the message to be handled again")
	}
	if calls != 2 {
		t.Errorf("expected permanent handler to run twice, ran %d times", calls)
	}
}

func TestMetaDispatcher_UnknownChannel(t *testing.T) {
	d := newMetaDispatcher()
	if d.handle(&Message{Channel: "/meta/ping"}) {
		t.Error("expected an unknown meta channel to go unhandled")
	}
}

func TestMetaDispatcher_ChainOnce(t *testing.T) {
	d := newMetaDispatcher()
	permanentCalls := 0
	onceCalls := 0
	d.setHandler(MetaHandshake, func(*Message) { permanentCalls++ })
	d.chainOnce(MetaHandshake, func(*Message) { onceCalls++ })

	m := &Message{Channel: MetaHandshake}
	d.handle(m)
	d.handle(m)
	d.handle(m)

	if onceCalls != 1 {
		t.Errorf("expected one-shot to run exactly once, ran %d times", onceCalls)
	}
	if permanentCalls != 3 {
		t.Errorf("expected permanent handler to run every time, ran %d times", permanentCalls)
	}
}

func TestMetaDispatcher_ChainOncePermanentRunsFirst(t *testing.T) {
	d := newMetaDispatcher()
	var order []string
	d.setHandler(MetaHandshake, func(*Message) { order = append(order, "permanent") })
	d.chainOnce(MetaHandshake, func(*Message) { order = append(order, "once") })

	d.handle(&Message{Channel: MetaHandshake})

	if len(order) != 2 || order[0] != "permanent" || order[1] != "once" {
		t.Errorf("expected permanent handler before one-shot, got %v", order)
	}
}

func TestMetaDispatcher_ChainOnceRechains(t *testing.T) {
	d := newMetaDispatcher()
	permanentCalls := 0
	onceCalls := 0
	d.setHandler(MetaHandshake, func(*Message) { permanentCalls++ })

	// a one-shot that re-arms itself until the third reply
	var once metaHandler
	once = func(m *Message) {
		onceCalls++
		if onceCalls < 3 {
			d.chainOnce(MetaHandshake, once)
		}
	}
	d.chainOnce(MetaHandshake, once)

	m := &Message{Channel: MetaHandshake}
	for i := 0; i < 5; i++ {
		d.handle(m)
	}

	if onceCalls != 3 {
		t.Errorf("expected re-chained one-shot to run three times, ran %d times", onceCalls)
	}
	if permanentCalls != 5 {
		t.Errorf("expected permanent handler to survive re-chaining, ran %d times", permanentCalls)
	}
}

func TestMetaDispatcher_StackedOneShots(t *testing.T) {
	d := newMetaDispatcher()
	var order []string
	d.setHandler(MetaConnect, func(*Message) { order = append(order, "permanent") })
	d.chainOnce(MetaConnect, func(*Message) { order = append(order, "first") })
	d.chainOnce(MetaConnect, func(*Message) { order = append(order, "second") })

	m := &Message{Channel: MetaConnect}
	d.handle(m)
	d.handle(m)
	d.handle(m)

	want := []string{"permanent", "first", "second", "permanent", "permanent"}
	if len(order) != len(want) {
		t.Fatalf("expected call order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected call order %v, got %v", want, order)
		}
	}
}
