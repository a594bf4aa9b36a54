// Package redis builds the shared go-redis client used by the journal, rate limiter and dedup store.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/vending-machine/pkg/config"
)

// New creates a Redis client configured with cfg, instruments it, and verifies the connection with Ping.
func New(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(Options(cfg))
	rdb.AddHook(NewMetricsHook())

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// Options maps the redis config section onto go-redis options.
func Options(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
}
