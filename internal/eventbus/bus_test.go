package eventbus

import "testing"

func TestBusFiltersByType(t *testing.T) {
	t.Parallel()

	b := New()
	msgs, unsubMsgs := b.Subscribe(4, ChatMessage)
	defer unsubMsgs()
	all, unsubAll := b.Subscribe(4)
	defer unsubAll()

	b.Publish(Event{Type: ChatMessage, Data: 1})
	b.Publish(Event{Type: AlertCycle, Data: 2})

	if got := len(msgs); got != 1 {
		t.Fatalf("filtered subscriber got %d events, want 1", got)
	}
	if got := len(all); got != 2 {
		t.Fatalf("catch-all subscriber got %d events, want 2", got)
	}
	e := <-msgs
	if e.Time.IsZero() || e.Data != 1 {
		t.Fatalf("event = %+v", e)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	t.Parallel()

	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	for i := 0; i < 3; i++ {
		b.Publish(Event{Type: ChatMessage})
	}
	if got := b.Dropped(); got != 2 {
		t.Fatalf("Dropped() = %d, want 2", got)
	}
}

func TestUnsubscribeClosesAndStopsDelivery(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	b.Publish(Event{Type: ChatMessage})
	if got := b.Dropped(); got != 0 {
		t.Fatalf("Dropped() = %d after unsubscribe, want 0", got)
	}
}
