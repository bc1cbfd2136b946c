package chat

import (
	"context"
	"testing"
	"time"

	"github.com/CoachBridge/CoachBridge/internal/cache"
	"github.com/CoachBridge/CoachBridge/internal/history"
)

func TestPrimeSeedsFromSnapshotCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := cache.NewMemoryStore()

	// A previous run persists its transcript.
	prev, _ := newTestEngine(t, &fakeHistory{
		rows: []history.RawMessage{rawUser("m-1", "", "hello", now)},
	}, &fakeGate{allow: true})
	prev.SetCache(store)
	if err := prev.LoadHistory(ctx, LoadOptions{FullReplace: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// A fresh session on cold start sees the cached view before any fetch.
	e, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	e.SetCache(store)
	e.Prime(ctx)

	msgs := e.session.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m-1" {
		t.Fatalf("expected cached transcript, got %+v", msgs)
	}
}

func TestSnapshotExcludesOptimisticEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := cache.NewMemoryStore()

	e, _ := newTestEngine(t, &fakeHistory{
		rows: []history.RawMessage{rawUser("m-1", "", "hello", now)},
	}, &fakeGate{allow: true})
	e.SetCache(store)

	e.session.append(Message{ID: "tmp-1", ClientTempID: "tmp-1", Text: "unsent", Timestamp: now, IsOptimistic: true})
	if err := e.LoadHistory(ctx, LoadOptions{FullReplace: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	fresh, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	fresh.SetCache(store)
	fresh.Prime(ctx)

	for _, m := range fresh.Session().Messages() {
		if m.IsOptimistic {
			t.Fatalf("optimistic entry must not resurrect from cache: %+v", m)
		}
	}
}

func TestPrimeWithoutCacheIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, &fakeHistory{}, &fakeGate{allow: true})
	e.Prime(context.Background())
	if len(e.session.Messages()) != 0 {
		t.Fatal("prime without a cache should do nothing")
	}
}
