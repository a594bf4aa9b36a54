package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/vending-machine/internal/errors"
)

const journalKeyPattern = "vending:journal:%s"

// RedisJournal persists entries as JSON in one capped Redis list per machine.
type RedisJournal struct {
	client     *redis.Client
	log        *slog.Logger
	maxEntries int
}

// NewRedisJournal initializes a Redis-backed Journal implementation.
func NewRedisJournal(client *redis.Client, log *slog.Logger, maxEntries int) *RedisJournal {
	if log == nil {
		log = slog.Default()
	}

	return &RedisJournal{
		client:     client,
		log:        log,
		maxEntries: maxEntriesOrDefault(maxEntries),
	}
}

// Append pushes the entry and trims the list to the newest maxEntries in one transaction.
func (j *RedisJournal) Append(ctx context.Context, entry Entry) error {
	entry, err := prepare(entry)
	if err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		j.log.Error("failed to encode journal entry", "machine_id", entry.MachineID, "error", err)
		return err
	}

	key := journalKey(entry.MachineID)
	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-j.maxEntries), -1)

	if _, err := pipe.Exec(ctx); err != nil {
		j.log.Error("failed to append journal entry", "machine_id", entry.MachineID, "error", err)
		return apperrors.NewStorageError("redis", err)
	}

	return nil
}

func (j *RedisJournal) List(ctx context.Context, machineID string, limit int) ([]Entry, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	items, err := j.client.LRange(ctx, journalKey(machineID), start, -1).Result()
	if err != nil {
		j.log.Error("failed to read journal", "machine_id", machineID, "error", err)
		return nil, apperrors.NewStorageError("redis", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			j.log.Error("failed to decode journal entry", "machine_id", machineID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func journalKey(machineID string) string {
	return fmt.Sprintf(journalKeyPattern, machineID)
}
