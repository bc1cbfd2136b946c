package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishAndDispatch(t *testing.T) {
	b := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *Event, 1)
	b.Subscribe("chat-1", func(ev *Event) { received <- ev })
	go b.Dispatch(ctx)

	b.Publish(&Event{Type: EventMessageUpdated, SessionKey: "chat-1", MessageID: "m-1"})

	select {
	case ev := <-received:
		if ev.Type != EventMessageUpdated || ev.MessageID != "m-1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("publish should stamp the event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was not dispatched")
	}
}

func TestWildcardSubscriber(t *testing.T) {
	b := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *Event, 1)
	b.Subscribe("", func(ev *Event) { received <- ev })
	go b.Dispatch(ctx)

	b.Publish(&Event{Type: EventLimitReached, SessionKey: "any-session"})

	select {
	case ev := <-received:
		if ev.Type != EventLimitReached {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wildcard subscriber did not receive the event")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewEventBus()
	// No dispatcher running; fill the queue and keep publishing.
	for i := 0; i < 500; i++ {
		b.Publish(&Event{Type: EventRevealTick, SessionKey: "s"})
	}
	if b.Size() != cap(b.events) {
		t.Fatalf("queue should be full, got %d", b.Size())
	}
}
