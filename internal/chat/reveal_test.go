package chat

import (
	"context"
	"testing"
	"time"
)

func TestRevealProgressesWordByWord(t *testing.T) {
	e, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	e.session.append(Message{ID: "m-1", Sender: SenderSystem, Timestamp: time.Now()})

	var steps []string
	e.sleep = func(ctx context.Context, d time.Duration) {
		for _, m := range e.session.Messages() {
			if m.ID == "m-1" {
				steps = append(steps, m.Text)
			}
		}
	}

	e.Reveal(context.Background(), "m-1", "one two three")

	if len(steps) != 2 {
		t.Fatalf("expected 2 intermediate steps, got %d: %v", len(steps), steps)
	}
	if steps[0] != "one" || steps[1] != "one two" {
		t.Fatalf("reveal should grow word by word, got %v", steps)
	}

	msgs := e.session.Messages()
	if msgs[0].Text != "one two three" {
		t.Fatalf("reveal should finish on the full text, got %q", msgs[0].Text)
	}
}

func TestRevealUnknownMessageIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	// Must not panic or loop on a message that was removed meanwhile.
	e.Reveal(context.Background(), "gone", "hello there")
}

func TestRevealDelayWithinBounds(t *testing.T) {
	e, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	e.revealMinDelay = 10 * time.Millisecond
	e.revealMaxDelay = 20 * time.Millisecond

	for i := 0; i < 100; i++ {
		d := e.revealDelay()
		if d < e.revealMinDelay || d >= e.revealMaxDelay {
			t.Fatalf("delay %v out of [%v, %v)", d, e.revealMinDelay, e.revealMaxDelay)
		}
	}
}
