package quota

import (
	"context"
	"testing"
	"time"
)

func TestDailyAllowanceConsumes(t *testing.T) {
	gate := NewDailyAllowance(2)
	ctx := context.Background()

	if !gate.CanSend(ctx) || !gate.CanSend(ctx) {
		t.Fatal("first two sends should be allowed")
	}
	if gate.CanSend(ctx) {
		t.Fatal("third send should be denied")
	}
	if gate.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", gate.Remaining())
	}
}

func TestDailyAllowanceResetsNextDay(t *testing.T) {
	gate := NewDailyAllowance(1)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	ctx := context.Background()
	if !gate.CanSend(ctx) {
		t.Fatal("first send should be allowed")
	}
	if gate.CanSend(ctx) {
		t.Fatal("limit should be exhausted")
	}

	now = now.Add(24 * time.Hour)
	if !gate.CanSend(ctx) {
		t.Fatal("allowance should reset on the next day")
	}
}

func TestNotifyLimitReachedCallback(t *testing.T) {
	gate := NewDailyAllowance(1)
	fired := 0
	gate.OnLimitReached(func() { fired++ })

	gate.NotifyLimitReached()
	if fired != 1 {
		t.Fatalf("callback should fire once, got %d", fired)
	}
}

func TestUnlimitedAlwaysAllows(t *testing.T) {
	var gate Gate = Unlimited{}
	for i := 0; i < 100; i++ {
		if !gate.CanSend(context.Background()) {
			t.Fatal("unlimited gate should always allow")
		}
	}
}
