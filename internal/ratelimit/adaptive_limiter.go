package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/vending-machine/pkg/metrics"
)

// AdaptiveLimiter delegates to a primary (Redis) limiter and falls back to
// a stricter in-memory limiter when the primary fails.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

// NewAdaptiveLimiter creates a limiter that adapts between Redis and in-memory backends.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Check evaluates the limit using the primary backend, falling back to memory on errors.
// The fallback allows half the configured limit.
func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil {
		metrics.RecordRateLimitCheck("redis", result.Allowed)
		if !result.Allowed {
			return result, ErrLimitExceeded
		}
		return result, nil
	}

	metrics.RecordRateLimitBackendError("redis")
	a.log.Warn("redis limiter failed, falling back to in-memory", slog.String("key", key), slog.Any("error", err))

	fallbackLimit := limit / 2
	if fallbackLimit <= 0 {
		fallbackLimit = 1
	}

	fallbackResult, fallbackErr := a.fallback.Check(ctx, key, fallbackLimit, window)
	if fallbackResult != nil {
		metrics.RecordRateLimitCheck("fallback", fallbackResult.Allowed)
	}

	return fallbackResult, fallbackErr
}
