package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crm/backend/internal/domain/verification"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryResultCache implements ResultCache with an in-memory map. This is
// suitable for single-instance deployments and testing. A background
// goroutine removes expired entries.
type InMemoryResultCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryResultCache creates an in-memory cache and starts its cleanup
// goroutine.
func NewInMemoryResultCache() *InMemoryResultCache {
	c := &InMemoryResultCache{
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached value for the key if present and not expired.
func (c *InMemoryResultCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores the value under the key with the given TTL.
func (c *InMemoryResultCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryResultCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryResultCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryResultCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ verification.ResultCache = (*InMemoryResultCache)(nil)
