package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/infrastructure/config"
)

// Factory creates verification caches and rate limiters based on
// configuration. When Redis is unavailable it can fall back to in-memory
// implementations, which do not share state across process instances.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory
// implementations when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateResultCache returns a Redis-backed cache, or an in-memory cache when
// Redis is unavailable and fallback is allowed.
func (f *Factory) CreateResultCache() (verification.ResultCache, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis verification cache")
		return NewRedisResultCache(client), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for verification cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory verification cache. "+
		"Cached results will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryResultCache(), nil
}

// CreateRateLimiter returns a Redis-backed fixed-window limiter, or an
// in-memory limiter when Redis is unavailable and fallback is allowed.
// An in-memory limiter enforces the limit per instance only, which can
// overrun a shared registry quota in distributed deployments.
func (f *Factory) CreateRateLimiter(limit int, window time.Duration) (verification.RateLimiter, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis rate limiter",
			zap.Int("limit", limit),
			zap.Duration("window", window),
		)
		return NewRedisRateLimiter(client, limit, window), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for rate limiting but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory rate limiter",
		zap.Error(err),
	)
	return NewInMemoryRateLimiter(limit, window), nil
}
