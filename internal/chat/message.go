// Package chat implements the conversational message reconciliation engine:
// optimistic local sends, temp-identifier correlation with the authoritative
// transcript, bounded polling convergence, and the concurrency guards that
// keep overlapping synchronization passes from corrupting session state.
package chat

import (
	"time"

	"github.com/CoachBridge/CoachBridge/internal/history"
)

// Sender identifies who authored a message.
type Sender string

// Sender values.
const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Status is the advisory delivery state of a message. It is presentation
// metadata, not a correctness mechanism.
type Status string

// Status values.
const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Message is one entry of the session transcript. Before reconciliation ID
// equals the client temp id; afterwards it is the server-issued permanent id.
type Message struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Sender       Sender    `json:"sender"`
	Timestamp    time.Time `json:"timestamp"`
	Status       Status    `json:"status"`
	ClientTempID string    `json:"client_temp_id,omitempty"`
	SystemTempID string    `json:"system_temp_id,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	IsOptimistic bool      `json:"is_optimistic"`
}

// fromRaw maps an authoritative row into a transcript message.
//
// A client temp id echoed on a user row is correlation input consumed
// during the full-replace carry-over; the mapped message never carries it.
// A system temp id or run id on an assistant row marks a reply that is
// still being generated: the echo is retained so the convergence test can
// see it, and the message stays optimistic until a later fetch returns the
// row settled.
func fromRaw(raw history.RawMessage) Message {
	msg := Message{
		ID:        raw.ID,
		Text:      raw.Content,
		Sender:    SenderSystem,
		Timestamp: raw.Timestamp,
		Status:    StatusDelivered,
	}
	if raw.Role == history.RoleUser {
		msg.Sender = SenderUser
		return msg
	}
	if raw.SystemTempID != "" || raw.RunID != "" {
		msg.SystemTempID = raw.SystemTempID
		msg.RunID = raw.RunID
		msg.IsOptimistic = true
		msg.Status = StatusSent
	}
	return msg
}
