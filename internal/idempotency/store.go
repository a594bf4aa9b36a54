// Package idempotency makes sure a Telegram update changes a machine at most once, even when Telegram
// delivers it again after a timeout.
package idempotency

import (
	"context"
	"time"
)

// Store claims keys for a limited time.
type Store interface {
	// Claim marks key as seen for ttl. It returns false when the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so the update can be processed again.
	Release(ctx context.Context, key string) error
}
