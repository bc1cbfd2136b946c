package chat

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/bus"
)

// waitForReconciliation polls the authoritative transcript until none of
// the given temp identifiers is observed on any message, or the attempt
// budget is exhausted. Returns true on convergence.
//
// Calling with ids that are no longer tracked as pending succeeds
// immediately without a fetch; this makes repeated waits idempotent and
// keeps a loop safe when the session was cleared underneath it.
func (e *Engine) waitForReconciliation(ctx context.Context, ids []string, kind reconcileKind) bool {
	if !e.session.hasPending(ids, kind) {
		return true
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if err := e.LoadHistory(ctx, LoadOptions{FullReplace: true}); err != nil {
			slog.Debug("Poller: fetch failed, retrying", "kind", kind.String(),
				"attempt", attempt, "error", err)
		}

		if e.session.converged(ids, kind) {
			e.session.clearPending(ids, kind)
			return true
		}

		if attempt == e.maxAttempts-1 {
			break
		}
		e.pause(ctx, e.backoff(attempt))
		if ctx.Err() != nil {
			break
		}
	}

	// Clear anyway so the pending set can never lock up permanently. The
	// affected message stays marked optimistic; presentation shows it as
	// unconfirmed.
	e.session.clearPending(ids, kind)
	slog.Warn("Poller: reconciliation timed out", "session", e.session.Key,
		"kind", kind.String(), "ids", ids, "attempts", e.maxAttempts)
	e.publish(bus.EventMessageUpdated, "")
	return false
}

// backoff returns min(baseDelay * 2^attempt, capDelay).
func (e *Engine) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(e.baseDelay) * math.Pow(2, float64(attempt)))
	if delay > e.capDelay || delay <= 0 {
		delay = e.capDelay
	}
	return delay
}
