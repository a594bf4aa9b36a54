package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "user:1", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 4-i, result.Remaining)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "user:2", 2, time.Minute)
		assert.NoError(t, err)
		if i < 2 {
			assert.True(t, result.Allowed)
		} else {
			assert.False(t, result.Allowed)
		}
	}
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:3", 2, time.Second)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(1100 * time.Millisecond)

	result, err := limiter.Check(ctx, "user:3", 2, time.Second)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_KeysExpire(t *testing.T) {
	client, mr := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	_, err := limiter.Check(context.Background(), "user:4", 5, time.Minute)
	require.NoError(t, err)

	assert.True(t, mr.Exists(redisKeyPrefix+"user:4"))
	assert.Equal(t, 2*time.Minute, mr.TTL(redisKeyPrefix+"user:4"))
}

func TestAdaptiveLimiter_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	limiter := New("redis", client, NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	// The fallback allows half of the configured limit.
	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:5", 4, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:5", 4, time.Minute)
	require.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestAdaptiveLimiter_RejectsThroughRedis(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := New("redis", client, NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:6", 1, time.Minute)
	require.NoError(t, err)

	_, err = limiter.Check(ctx, "user:6", 1, time.Minute)
	require.ErrorIs(t, err, ErrLimitExceeded)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
