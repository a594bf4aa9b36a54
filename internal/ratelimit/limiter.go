// Package ratelimit throttles bot users with sliding-window limits.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter describes a rate-limiting strategy interface.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// New builds the limiter for backend. The redis backend falls back to memory when Redis is unreachable.
func New(backend string, client *redis.Client, memory *MemoryLimiter, log *slog.Logger) Limiter {
	if backend == "redis" && client != nil {
		return NewAdaptiveLimiter(NewRedisLimiter(client, log), memory, log)
	}

	return memory
}
