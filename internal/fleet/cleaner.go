package fleet

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts idle machines from the fleet on a schedule.
type Cleaner struct {
	service  *Service
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(service *Service, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		service:  service,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.service == nil || c.ttl <= 0 || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("fleet cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	for _, id := range c.service.Evict(ctx, c.ttl) {
		c.log.Info("idle machine evicted", slog.String("machine_id", id))
	}
}
