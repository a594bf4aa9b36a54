package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrDuplicate indicates the key has already been processed or is being processed right now.
var ErrDuplicate = errors.New("update already processed")

// Manager runs operations at most once per key.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewManager builds a Manager that remembers keys for ttl.
func NewManager(store Store, ttl time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Once runs fn unless key was claimed before, in which case it returns ErrDuplicate. A failed fn
// releases the key again so that a redelivered update gets another chance.
func (m *Manager) Once(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("operation fn cannot be nil")
	}

	claimed, err := m.store.Claim(ctx, key, m.ttl)
	if err != nil {
		// Losing deduplication is better than losing the update.
		m.log.Warn("idempotency store unavailable, running without dedup", slog.String("key", key), slog.Any("error", err))
		return fn(ctx)
	}
	if !claimed {
		return ErrDuplicate
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(ctx, key); releaseErr != nil {
			m.log.Warn("failed to release update key", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return err
	}

	return nil
}
