// Package history defines the boundary to the authoritative transcript
// service: fetching the server-side conversation history and submitting
// new outbound messages.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role values for RawMessage.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrQuotaExceeded is returned by Submit when the server rejects the
// message because the user's plan allowance is exhausted.
var ErrQuotaExceeded = errors.New("history: quota exceeded")

// RawMessage is one row of the authoritative transcript as returned by the
// backend. Rows that are not yet fully settled echo back the temp
// identifiers supplied at submit time so the client can correlate them
// with its optimistic local entries.
type RawMessage struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	ClientTempID string    `json:"client_temp_id,omitempty"`
	SystemTempID string    `json:"system_temp_id,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
}

// Validate rejects rows that cannot be mapped into a transcript message.
// Malformed server responses fail loudly here instead of silently
// producing inconsistent local state.
func (m *RawMessage) Validate() error {
	if m.ID == "" {
		return errors.New("message id is empty")
	}
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return fmt.Errorf("unknown role %q for message %s", m.Role, m.ID)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp for message %s", m.ID)
	}
	return nil
}

// SubmitResult is the server acknowledgement of an accepted message. The
// system temp ids (and optional run id) correlate the asynchronously
// generated reply with this submission.
type SubmitResult struct {
	SystemTempIDs []string `json:"system_temp_ids,omitempty"`
	RunID         string   `json:"run_id,omitempty"`
}

// Client is the History Sync Client contract. Implementations must be safe
// for the caller to retry Submit at its own discretion.
type Client interface {
	// Submit sends one outbound message tagged with the client temp id.
	Submit(ctx context.Context, chatID, text, clientTempID string) (*SubmitResult, error)

	// FetchHistory returns the full authoritative transcript for a chat.
	FetchHistory(ctx context.Context, chatID string) ([]RawMessage, error)
}
