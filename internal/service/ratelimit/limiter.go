package ratelimit

import (
	"sync"
	"time"

	drepo "Heatmap/internal/domain/repository"
)

const window = time.Minute

// Limiter is a process-wide fixed-window counter over provider calls.
// One instance is shared by all concurrent requests; state lives only in
// memory and resets on restart.
type Limiter struct {
	mu    sync.Mutex
	limit int
	used  int
	start time.Time
	now   func() time.Time
}

// New creates a limiter with the given per-minute budget. A limit of zero or
// less disables limiting entirely.
func New(limit int) *Limiter {
	return &Limiter{limit: limit, now: time.Now}
}

// Reserve grants up to n call slots from the current window and returns the
// window state after the grant. The window starts lazily on first use and
// restarts whenever a reservation finds it older than a minute.
func (l *Limiter) Reserve(n int) (int, drepo.RateLimitSnapshot) {
	if l.limit <= 0 {
		return n, drepo.RateLimitSnapshot{}
	}

	now := l.now()
	l.mu.Lock()
	fresh := l.start.IsZero() || now.Sub(l.start) >= window
	if fresh {
		l.start = now
		l.used = 0
	}
	available := l.limit - l.used
	if available < 0 {
		available = 0
	}
	granted := n
	if granted > available {
		granted = available
	}
	l.used += granted
	resetIn := 0
	if !fresh {
		resetIn = int((window - now.Sub(l.start)) / time.Second)
	}
	snap := drepo.RateLimitSnapshot{
		Limit:     l.limit,
		Used:      l.used,
		Remaining: l.limit - l.used,
		ResetIn:   resetIn,
	}
	l.mu.Unlock()
	return granted, snap
}
