package ratelimit

import (
	"testing"
	"time"
)

func TestReserveWithinBudget(t *testing.T) {
	l := New(5)
	granted, snap := l.Reserve(3)
	if granted != 3 {
		t.Fatalf("expected grant 3, got %d", granted)
	}
	if snap.Used != 3 || snap.Remaining != 2 || snap.Limit != 5 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.ResetIn != 0 {
		t.Fatalf("fresh window should report resetIn=0, got %d", snap.ResetIn)
	}
}

func TestReservePartialGrant(t *testing.T) {
	l := New(5)
	l.Reserve(3)
	granted, snap := l.Reserve(4)
	if granted != 2 {
		t.Fatalf("expected partial grant 2, got %d", granted)
	}
	if snap.Used != 5 || snap.Remaining != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.ResetIn <= 0 || snap.ResetIn > 60 {
		t.Fatalf("expected resetIn within window, got %d", snap.ResetIn)
	}
}

func TestReserveExhausted(t *testing.T) {
	l := New(2)
	l.Reserve(2)
	granted, snap := l.Reserve(1)
	if granted != 0 {
		t.Fatalf("expected zero grant, got %d", granted)
	}
	if snap.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", snap.Remaining)
	}
}

func TestReserveWindowReset(t *testing.T) {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	current := base
	l := New(2)
	l.now = func() time.Time { return current }

	l.Reserve(2)
	current = base.Add(30 * time.Second)
	if granted, _ := l.Reserve(1); granted != 0 {
		t.Fatalf("expected zero grant mid-window, got %d", granted)
	}

	current = base.Add(61 * time.Second)
	granted, snap := l.Reserve(2)
	if granted != 2 {
		t.Fatalf("expected full grant after reset, got %d", granted)
	}
	if snap.Used != 2 || snap.ResetIn != 0 {
		t.Fatalf("unexpected snapshot after reset %+v", snap)
	}
}

func TestDisabledLimiter(t *testing.T) {
	l := New(0)
	granted, snap := l.Reserve(100)
	if granted != 100 {
		t.Fatalf("disabled limiter must grant everything, got %d", granted)
	}
	if snap.Limit != 0 || snap.Used != 0 {
		t.Fatalf("disabled limiter must report a zero snapshot, got %+v", snap)
	}
}
