package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crm/backend/internal/domain/verification"
)

type window struct {
	startedAt time.Time
	count     int
}

// InMemoryRateLimiter implements a fixed-window rate limiter with an
// in-memory map. This is suitable for single-instance deployments and
// testing. Limits are not shared across process instances.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	size    time.Duration
	now     func() time.Time
}

// NewInMemoryRateLimiter creates a limiter allowing limit requests per window.
func NewInMemoryRateLimiter(limit int, size time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]window),
		limit:   limit,
		size:    size,
		now:     time.Now,
	}
}

// WithClock replaces the limiter's clock. Intended for tests.
func (l *InMemoryRateLimiter) WithClock(now func() time.Time) *InMemoryRateLimiter {
	l.now = now
	return l
}

// Allow reports whether another request is permitted for the key within the
// current window. An expired window is replaced by a fresh one starting at
// the current request.
func (l *InMemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.Sub(w.startedAt) >= l.size {
		w = window{startedAt: now}
	}

	w.count++
	l.windows[key] = w

	return w.count <= l.limit, nil
}

var _ verification.RateLimiter = (*InMemoryRateLimiter)(nil)
