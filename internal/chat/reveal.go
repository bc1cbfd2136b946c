package chat

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/bus"
)

// Reveal progressively replaces a message's displayed text word by word
// with small randomized delays. Purely cosmetic: the full text is already
// known, and reveal progress must never be used to infer reconciliation
// state. Blocks until complete or the context is cancelled; cancellation
// snaps the message to its full text.
func (e *Engine) Reveal(ctx context.Context, messageID, fullText string) {
	words := strings.Fields(fullText)
	if len(words) == 0 || !e.session.setText(messageID, "") {
		return
	}

	var shown strings.Builder
	for i, word := range words {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			shown.WriteString(" ")
		}
		shown.WriteString(word)
		e.session.setText(messageID, shown.String())
		e.publish(bus.EventRevealTick, messageID)

		if i < len(words)-1 {
			e.sleep(ctx, e.revealDelay())
		}
	}

	e.session.setText(messageID, fullText)
	e.publish(bus.EventMessageUpdated, messageID)
}

func (e *Engine) revealDelay() time.Duration {
	if e.revealMaxDelay <= e.revealMinDelay {
		return e.revealMinDelay
	}
	spread := e.revealMaxDelay - e.revealMinDelay
	return e.revealMinDelay + time.Duration(rand.Int63n(int64(spread)))
}
