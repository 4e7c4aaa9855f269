package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// userWindow holds one user's request timestamps. Guarded by its own mutex
// so concurrent requests from the same user serialize only against each
// other, not across users.
type userWindow struct {
	mu   sync.Mutex
	hits []time.Time
}

// MemoryLimiter is the in-process sliding window. Limits are per deployment
// instance; sufficient for a single-instance deployment.
type MemoryLimiter struct {
	window time.Duration
	limit  int
	users  *xsync.Map[string, *userWindow]

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryLimiter returns an in-process limiter. Zero values fall back to
// the package defaults.
func NewMemoryLimiter(window time.Duration, limit int) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryLimiter{
		window: window,
		limit:  limit,
		users:  xsync.NewMap[string, *userWindow](),
		now:    time.Now,
	}
}

// Check prunes expired timestamps, rejects with a retry hint at capacity,
// and otherwise records the request.
func (l *MemoryLimiter) Check(_ context.Context, userID string) (Result, error) {
	w, _ := l.users.LoadOrStore(userID, &userWindow{})

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept

	if len(w.hits) >= l.limit {
		return Result{OK: false, RetryAfter: retryAfterSeconds(w.hits[0], now, l.window)}, nil
	}

	w.hits = append(w.hits, now)
	return Result{OK: true}, nil
}
