package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/vending-machine/internal/errors"
	"github.com/Proton-105/vending-machine/internal/vending"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNewEntry(t *testing.T) {
	entry := NewEntry("chat:1", KindSale, vending.ProductCandy, []vending.Coin{vending.CoinQuarter, vending.CoinDime})

	assert.Equal(t, "candy", entry.Product)
	assert.Equal(t, 65, entry.Price)
	assert.Equal(t, []string{"quarter", "dime"}, entry.Coins)

	entry = NewEntry("chat:1", KindCoinReturn, vending.ProductNone, nil)
	assert.Empty(t, entry.Product)
	assert.Nil(t, entry.Coins)
}

func journals(t *testing.T, maxEntries int) map[string]Journal {
	client, _ := setupTestRedis(t)

	return map[string]Journal{
		"memory": NewMemoryJournal(maxEntries),
		"redis":  NewRedisJournal(client, testLogger(), maxEntries),
	}
}

func TestJournal_AppendAndList(t *testing.T) {
	for name, j := range journals(t, 3) {
		j := j
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				entry := NewEntry("chat:7", KindSale, vending.ProductChips, nil)
				entry.ID = fmt.Sprintf("entry-%d", i)
				require.NoError(t, j.Append(ctx, entry))
			}
			require.NoError(t, j.Append(ctx, NewEntry("chat:8", KindCoinReturn, vending.ProductNone, []vending.Coin{vending.CoinDime})))

			entries, err := j.List(ctx, "chat:7", 0)
			require.NoError(t, err)
			require.Len(t, entries, 3, "only the newest entries are kept")
			assert.Equal(t, "entry-2", entries[0].ID)
			assert.Equal(t, "entry-4", entries[2].ID)
			assert.False(t, entries[0].At.IsZero())

			entries, err = j.List(ctx, "chat:7", 1)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "entry-4", entries[0].ID)

			entries, err = j.List(ctx, "chat:8", 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, KindCoinReturn, entries[0].Kind)
			assert.Equal(t, []string{"dime"}, entries[0].Coins)
			assert.NotEmpty(t, entries[0].ID)

			entries, err = j.List(ctx, "chat:404", 10)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestJournal_RejectsInvalidEntry(t *testing.T) {
	for name, j := range journals(t, 0) {
		j := j
		t.Run(name, func(t *testing.T) {
			err := j.Append(context.Background(), Entry{Kind: KindSale})
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestRedisJournal_BackendDown(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	j := NewRedisJournal(client, testLogger(), 10)
	mr.Close()

	err := j.Append(context.Background(), NewEntry("chat:1", KindSale, vending.ProductCola, nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}
