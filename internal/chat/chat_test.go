package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/history"
)

// fakeHistory scripts the History Sync Client for engine tests.
type fakeHistory struct {
	mu          sync.Mutex
	fetchCalls  int
	submitCalls int

	rows     []history.RawMessage
	fetchErr error
	// fetchFn, when set, overrides rows/fetchErr; call is 1-based.
	fetchFn  func(call int) ([]history.RawMessage, error)
	submitFn func(chatID, text, clientTempID string) (*history.SubmitResult, error)
}

func (f *fakeHistory) Submit(ctx context.Context, chatID, text, clientTempID string) (*history.SubmitResult, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.submitFn != nil {
		return f.submitFn(chatID, text, clientTempID)
	}
	return &history.SubmitResult{}, nil
}

func (f *fakeHistory) FetchHistory(ctx context.Context, chatID string) ([]history.RawMessage, error) {
	f.mu.Lock()
	f.fetchCalls++
	call := f.fetchCalls
	f.mu.Unlock()
	if f.fetchFn != nil {
		return f.fetchFn(call)
	}
	return f.rows, f.fetchErr
}

func (f *fakeHistory) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// fakeGate is a scriptable quota gate.
type fakeGate struct {
	allow    bool
	notified int
}

func (g *fakeGate) CanSend(ctx context.Context) bool { return g.allow }
func (g *fakeGate) NotifyLimitReached()              { g.notified++ }

// newTestEngine builds an engine with instant sleeps, recording backoff
// delays instead of waiting them out.
func newTestEngine(t *testing.T, hist *fakeHistory, gate *fakeGate) (*Engine, *[]time.Duration) {
	t.Helper()
	sess := NewSession("chat-1")
	e := NewEngine(sess, hist, gate)

	delays := &[]time.Duration{}
	e.pause = func(ctx context.Context, d time.Duration) {
		*delays = append(*delays, d)
	}
	e.sleep = func(ctx context.Context, d time.Duration) {}
	return e, delays
}

func rawUser(id, tempID, text string, ts time.Time) history.RawMessage {
	return history.RawMessage{
		ID:           id,
		Role:         history.RoleUser,
		Content:      text,
		Timestamp:    ts,
		ClientTempID: tempID,
	}
}

func rawReply(id, sysTempID, text string, ts time.Time) history.RawMessage {
	return history.RawMessage{
		ID:           id,
		Role:         history.RoleAssistant,
		Content:      text,
		Timestamp:    ts,
		SystemTempID: sysTempID,
	}
}
