package notify

import (
	"context"
	"testing"
	"time"
)

func TestNudgesFiltersByChat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewChannelConsumer()
	nudge := Nudges(ctx, consumer, "chat-1")

	consumer.Send(Notification{ChatID: "other-chat"})
	consumer.Send(Notification{ChatID: "chat-1", RunID: "run-1"})

	select {
	case <-nudge:
	case <-time.After(2 * time.Second):
		t.Fatal("matching notification should produce a nudge")
	}

	select {
	case <-nudge:
		t.Fatal("notification for another chat must not nudge")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNudgesCoalesce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewChannelConsumer()
	nudge := Nudges(ctx, consumer, "chat-1")

	for i := 0; i < 10; i++ {
		consumer.Send(Notification{ChatID: "chat-1"})
	}

	// The consumer must never be blocked by a slow poller: at most one
	// nudge is queued.
	<-nudge
	time.Sleep(50 * time.Millisecond)
	count := 1
	for {
		select {
		case <-nudge:
			count++
			continue
		default:
		}
		break
	}
	if count > 2 {
		t.Fatalf("nudges should coalesce, got %d", count)
	}
}

func TestChannelConsumerClose(t *testing.T) {
	consumer := NewChannelConsumer()
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := consumer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, ok := <-consumer.Notifications(); ok {
		t.Fatal("closed consumer channel should be drained")
	}
}
