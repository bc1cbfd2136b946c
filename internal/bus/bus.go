// Package bus provides the async event bus between the chat engine and the
// presentation layer.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventType identifies what happened inside the engine.
type EventType string

// Event types published by the engine.
const (
	// EventMessageUpdated signals that the transcript changed and should
	// be re-read from the session.
	EventMessageUpdated EventType = "message_updated"
	// EventLimitReached signals a quota denial; presentation shows the
	// upgrade prompt. Published exactly once per denied send.
	EventLimitReached EventType = "limit_reached"
	// EventSendFailed signals that a submission failed and the optimistic
	// message was replaced by an explanatory system message.
	EventSendFailed EventType = "send_failed"
	// EventRevealTick signals one step of a streaming reveal.
	EventRevealTick EventType = "reveal_tick"
)

// Event is one notification from the engine to presentation code.
type Event struct {
	Type       EventType `json:"type"`
	SessionKey string    `json:"session_key"`
	MessageID  string    `json:"message_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventBus decouples the engine from whatever renders the conversation.
type EventBus struct {
	events chan *Event
	subs   map[string][]func(*Event)
	mu     sync.RWMutex
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		events: make(chan *Event, 100),
		subs:   make(map[string][]func(*Event)),
	}
}

// Publish enqueues an event. Never blocks the engine: if the queue is full
// the event is dropped, since every event is a cue to re-read session
// state rather than a state carrier.
func (b *EventBus) Publish(ev *Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case b.events <- ev:
	default:
		slog.Debug("EventBus: queue full, dropping event", "type", ev.Type, "session", ev.SessionKey)
	}
}

// Subscribe registers a callback for events of a specific session. An
// empty key subscribes to all sessions.
func (b *EventBus) Subscribe(sessionKey string, callback func(*Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[sessionKey] = append(b.subs[sessionKey], callback)
}

// Dispatch runs the event dispatcher. This should be run as a goroutine.
func (b *EventBus) Dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-b.events:
			b.mu.RLock()
			callbacks := append([]func(*Event){}, b.subs[ev.SessionKey]...)
			callbacks = append(callbacks, b.subs[""]...)
			b.mu.RUnlock()

			for _, cb := range callbacks {
				cb(ev)
			}
		}
	}
}

// Size returns the number of queued events.
func (b *EventBus) Size() int {
	return len(b.events)
}
