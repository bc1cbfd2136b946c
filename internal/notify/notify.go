// Package notify consumes reply-ready notifications from the backend. A
// notification is a hint that the authoritative transcript changed for a
// chat; the engine uses it to cut the poller's backoff sleep short. It is
// never a substitute for a fetch and carries no transcript content.
package notify

import "context"

// Notification is one reply-ready event.
type Notification struct {
	ChatID string `json:"chat_id"`
	RunID  string `json:"run_id,omitempty"`
}

// Consumer delivers notifications from some feed.
type Consumer interface {
	// Start begins consuming. Non-blocking.
	Start(ctx context.Context) error

	// Notifications returns the channel of received notifications.
	Notifications() <-chan Notification

	// Close stops the consumer and closes the notification channel.
	Close() error
}

// Nudges filters a consumer's notifications down to one chat and converts
// them into poller nudges. The returned channel has capacity one and never
// blocks the consumer; a nudge that arrives while one is already queued is
// coalesced.
func Nudges(ctx context.Context, c Consumer, chatID string) <-chan struct{} {
	nudge := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-c.Notifications():
				if !ok {
					return
				}
				if n.ChatID != chatID {
					continue
				}
				select {
				case nudge <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nudge
}
