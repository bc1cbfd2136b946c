package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CoachBridge/CoachBridge/internal/bus"
)

// LoadOptions controls one authoritative-fetch pass.
type LoadOptions struct {
	// FullReplace rebuilds the whole transcript from the fetched set.
	// Otherwise only messages with unseen ids are appended (delta mode).
	FullReplace bool

	// ForceRefresh bypasses the in-flight skip and exempts this pass's
	// result from the staleness discard.
	ForceRefresh bool
}

// LoadHistory runs one authoritative-fetch pass through the concurrency
// guard. It is the only path by which the transcript is repopulated from
// the server. A pass skipped because another is in flight returns nil; a
// fetch failure leaves the transcript unchanged and is returned to the
// caller, which treats it as "not yet converged".
func (e *Engine) LoadHistory(ctx context.Context, opts LoadOptions) error {
	epoch, ok := e.session.beginLoad(opts.ForceRefresh)
	if !ok {
		slog.Debug("Loader: fetch already in flight, skipping", "session", e.session.Key)
		return nil
	}

	rows, err := e.history.FetchHistory(ctx, e.session.Key)
	if err != nil {
		e.session.failLoad(epoch)
		return fmt.Errorf("load history: %w", err)
	}

	if !e.session.applyLoad(epoch, opts.ForceRefresh, opts.FullReplace, rows) {
		slog.Debug("Loader: discarding superseded fetch result",
			"session", e.session.Key, "epoch", epoch)
		return nil
	}

	e.saveSnapshot(ctx)
	e.publish(bus.EventMessageUpdated, "")
	return nil
}
