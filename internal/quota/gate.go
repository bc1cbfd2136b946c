// Package quota gates outbound sends on the user's plan allowance. The
// chat engine consumes the gate as a yes/no capability check; quota and
// billing decisions themselves live elsewhere.
package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Gate is consulted before every send.
type Gate interface {
	// CanSend reports whether one more message may be sent right now.
	CanSend(ctx context.Context) bool

	// NotifyLimitReached surfaces the limit to the user (e.g. an upgrade
	// prompt). Presentation-layer side effect only.
	NotifyLimitReached()
}

// Unlimited allows every send.
type Unlimited struct{}

// CanSend implements Gate.
func (Unlimited) CanSend(ctx context.Context) bool { return true }

// NotifyLimitReached implements Gate.
func (Unlimited) NotifyLimitReached() {}

// DailyAllowance is a local gate with a fixed number of sends per calendar
// day. Each allowed CanSend consumes one unit; the counter resets on the
// first check of a new day. The server remains the last word on quota, so
// a stale local count only costs an extra round trip.
type DailyAllowance struct {
	mu      sync.Mutex
	limit   int
	used    int
	day     time.Time
	now     func() time.Time
	onLimit func()
}

// NewDailyAllowance creates a gate allowing limit sends per day.
func NewDailyAllowance(limit int) *DailyAllowance {
	return &DailyAllowance{
		limit: limit,
		now:   time.Now,
	}
}

// OnLimitReached registers a presentation callback invoked by
// NotifyLimitReached.
func (g *DailyAllowance) OnLimitReached(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLimit = fn
}

// CanSend implements Gate.
func (g *DailyAllowance) CanSend(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now().Truncate(24 * time.Hour)
	if !today.Equal(g.day) {
		g.day = today
		g.used = 0
	}
	if g.used >= g.limit {
		return false
	}
	g.used++
	return true
}

// Remaining returns the number of sends left today.
func (g *DailyAllowance) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now().Truncate(24 * time.Hour)
	if !today.Equal(g.day) {
		return g.limit
	}
	if g.used >= g.limit {
		return 0
	}
	return g.limit - g.used
}

// NotifyLimitReached implements Gate.
func (g *DailyAllowance) NotifyLimitReached() {
	g.mu.Lock()
	fn := g.onLimit
	g.mu.Unlock()

	slog.Info("Quota: daily allowance reached", "limit", g.limit)
	if fn != nil {
		fn()
	}
}
