package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crm/backend/internal/domain/verification"
)

// RedisRateLimiter implements a fixed-window rate limiter on Redis.
// The counter for each key is created with INCR and given the window as TTL
// on first use, so the window starts with the first request in it.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter creates a limiter allowing limit requests per window.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Allow reports whether another request is permitted for the key within the
// current window.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	counterKey := "ratelimit:" + key

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter %s: %w", counterKey, err)
	}

	// First request in the window owns setting the expiry.
	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window for %s: %w", counterKey, err)
		}
	}

	return count <= l.limit, nil
}

var _ verification.RateLimiter = (*RedisRateLimiter)(nil)
