package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/bus"
	"github.com/CoachBridge/CoachBridge/internal/history"
)

// ErrQuotaDenied is returned by Send when the quota gate or the server
// rejects the message for allowance reasons. Expected and user-facing, not
// a system fault.
var ErrQuotaDenied = errors.New("chat: message allowance reached")

// sendFailureText is the synthetic system message substituted for a
// message that could not be submitted.
const sendFailureText = "Your message could not be sent. Please check your connection and try again."

// Send runs the full lifecycle of one outbound message: quota gate,
// optimistic insert, submission, then sequential reconciliation waits for
// the user's own message and the expected system reply.
//
// After Send returns, the session is in one of three states: the message
// is fully reconciled under its permanent id; the message was removed and
// a visible error explanation appended; or the message is still marked
// optimistic after a reconciliation timeout (a recognized degraded state,
// logged and surfaced as unconfirmed rather than hidden).
func (e *Engine) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !e.quota.CanSend(ctx) {
		e.quota.NotifyLimitReached()
		e.publish(bus.EventLimitReached, "")
		return ErrQuotaDenied
	}

	// Optimistic insert, visible to readers before the first suspension
	// point.
	tempID := NewTempID()
	e.session.append(Message{
		ID:           tempID,
		Text:         text,
		Sender:       SenderUser,
		Timestamp:    time.Now(),
		Status:       StatusSending,
		ClientTempID: tempID,
		IsOptimistic: true,
	})
	e.session.trackPendingUser(tempID)
	e.publish(bus.EventMessageUpdated, tempID)

	result, err := e.history.Submit(ctx, e.session.Key, text, tempID)
	if err != nil {
		e.session.remove(tempID)
		e.session.clearPending([]string{tempID}, reconcileUser)

		if errors.Is(err, history.ErrQuotaExceeded) {
			// The local gate can be stale; the server has the last word.
			slog.Info("Orchestrator: submit rejected by server quota", "session", e.session.Key)
			e.quota.NotifyLimitReached()
			e.publish(bus.EventLimitReached, "")
			return ErrQuotaDenied
		}

		slog.Warn("Orchestrator: submit failed", "session", e.session.Key, "error", err)
		e.session.append(Message{
			ID:        NewTempID(),
			Text:      sendFailureText,
			Sender:    SenderSystem,
			Timestamp: time.Now(),
			Status:    StatusDelivered,
		})
		e.publish(bus.EventSendFailed, tempID)
		return fmt.Errorf("send: %w", err)
	}

	var replyIDs []string
	if result != nil {
		replyIDs = append(replyIDs, result.SystemTempIDs...)
		if result.RunID != "" {
			replyIDs = append(replyIDs, result.RunID)
		}
	}
	e.session.trackPendingSystem(replyIDs)

	// The waits run sequentially so the user's own message settles before
	// the reply area updates.
	if !e.waitForReconciliation(ctx, []string{tempID}, reconcileUser) {
		slog.Warn("Orchestrator: user message left unconfirmed", "session", e.session.Key, "temp_id", tempID)
	}
	if len(replyIDs) > 0 {
		if !e.waitForReconciliation(ctx, replyIDs, reconcileSystem) {
			slog.Warn("Orchestrator: system reply not observed", "session", e.session.Key, "ids", replyIDs)
		}
	}

	e.publish(bus.EventMessageUpdated, "")
	return nil
}
