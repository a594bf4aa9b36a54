package ratelimit

import (
	"strconv"
	"time"

	"github.com/Proton-105/vending-machine/pkg/config"
)

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config    config.RateLimitConfig
	whitelist map[int64]struct{}
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Rules{config: cfg, whitelist: whitelist}
}

// Enabled reports whether any limit is configured.
func (r *Rules) Enabled() bool {
	return r.config.PerUser > 0 && r.config.Window > 0
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	_, ok := r.whitelist[userID]
	return ok
}

// PerUser returns the per-user limit and its window.
func (r *Rules) PerUser() (int, time.Duration) {
	return r.config.PerUser, r.config.Window
}

// UserKey returns the limiter key of a bot user.
func UserKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
