package verification

import (
	"context"
	"time"
)

// ResultCache stores serialized verification results. Reads and writes are
// best effort; a miss race between two callers costs one extra registry call
// and nothing else.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RateLimiter guards the external VAT registry. The window is fixed per
// minute bucket and the counter is shared across concurrent validations.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
