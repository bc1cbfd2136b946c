package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/bus"
	"github.com/CoachBridge/CoachBridge/internal/cache"
	"github.com/CoachBridge/CoachBridge/internal/history"
	"github.com/CoachBridge/CoachBridge/internal/quota"
)

// Default reconciliation poller tuning. Reply generation latency is
// variable and often measured in seconds, so the poller starts fast and
// backs off to a hard per-attempt cap.
const (
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultCapDelay    = 2 * time.Second
	DefaultMaxAttempts = 20
)

// Engine coordinates the optimistic-send lifecycle for one session:
// quota gate, optimistic insert, submission, reconciliation polling, and
// authoritative loads.
type Engine struct {
	session *Session
	history history.Client
	quota   quota.Gate

	cache  cache.Store
	events *bus.EventBus
	nudge  <-chan struct{}

	baseDelay   time.Duration
	capDelay    time.Duration
	maxAttempts int

	revealMinDelay time.Duration
	revealMaxDelay time.Duration

	// pause and sleep are injectable for deterministic tests. pause is the
	// poller's backoff wait (interruptible by a nudge); sleep is the
	// cosmetic reveal delay.
	pause func(ctx context.Context, d time.Duration)
	sleep func(ctx context.Context, d time.Duration)
}

// NewEngine creates an engine for the given session with default tuning.
func NewEngine(sess *Session, hist history.Client, gate quota.Gate) *Engine {
	e := &Engine{
		session:        sess,
		history:        hist,
		quota:          gate,
		baseDelay:      DefaultBaseDelay,
		capDelay:       DefaultCapDelay,
		maxAttempts:    DefaultMaxAttempts,
		revealMinDelay: 30 * time.Millisecond,
		revealMaxDelay: 90 * time.Millisecond,
	}
	e.pause = e.interruptiblePause
	e.sleep = sleepCtx
	return e
}

// Session returns the session this engine operates on.
func (e *Engine) Session() *Session {
	return e.session
}

// SetCache attaches a snapshot cache consulted before the first fetch and
// written back after every successful full replace.
func (e *Engine) SetCache(store cache.Store) {
	e.cache = store
}

// SetEvents attaches the event bus the engine publishes UI events to.
func (e *Engine) SetEvents(b *bus.EventBus) {
	e.events = b
}

// SetNudge attaches a reply-ready notification channel. A nudge cuts the
// poller's current backoff sleep short; it never substitutes for a fetch.
func (e *Engine) SetNudge(ch <-chan struct{}) {
	e.nudge = ch
}

// SetPolling overrides the poller tuning. Zero values keep the defaults.
func (e *Engine) SetPolling(base, capDelay time.Duration, maxAttempts int) {
	if base > 0 {
		e.baseDelay = base
	}
	if capDelay > 0 {
		e.capDelay = capDelay
	}
	if maxAttempts > 0 {
		e.maxAttempts = maxAttempts
	}
}

// snapshot is the cache wire shape: the persisted transcript view plus the
// time it was last known to match the server.
type snapshot struct {
	Messages []Message `json:"messages"`
	SyncedAt time.Time `json:"synced_at"`
}

// Prime seeds the session from the snapshot cache so the view is not empty
// on cold start. Never authoritative; the first successful fetch supersedes
// it.
func (e *Engine) Prime(ctx context.Context) {
	if e.cache == nil {
		return
	}
	data, err := e.cache.Load(ctx, e.session.Key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("Engine: snapshot load failed", "session", e.session.Key, "error", err)
		}
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Engine: snapshot decode failed", "session", e.session.Key, "error", err)
		return
	}
	if e.session.Prime(snap.Messages, snap.SyncedAt) {
		e.publish(bus.EventMessageUpdated, "")
	}
}

// saveSnapshot persists the non-optimistic transcript view. Best effort.
func (e *Engine) saveSnapshot(ctx context.Context) {
	if e.cache == nil {
		return
	}
	snap := snapshot{SyncedAt: e.session.LastSyncedAt()}
	for _, m := range e.session.Messages() {
		if !m.IsOptimistic {
			snap.Messages = append(snap.Messages, m)
		}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("Engine: snapshot encode failed", "session", e.session.Key, "error", err)
		return
	}
	if err := e.cache.Save(ctx, e.session.Key, data); err != nil {
		slog.Warn("Engine: snapshot save failed", "session", e.session.Key, "error", err)
	}
}

func (e *Engine) publish(typ bus.EventType, messageID string) {
	if e.events == nil {
		return
	}
	e.events.Publish(&bus.Event{
		Type:       typ,
		SessionKey: e.session.Key,
		MessageID:  messageID,
	})
}

// interruptiblePause waits for the given duration, a nudge, or context
// cancellation, whichever comes first.
func (e *Engine) interruptiblePause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	case <-e.nudge:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
