package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vending:update:"

// RedisStore claims keys with SET NX so that every bot replica sees the same claims.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, redisKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		s.log.Error("failed to claim update key", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

// Release implements Store.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		s.log.Error("failed to release update key", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}
