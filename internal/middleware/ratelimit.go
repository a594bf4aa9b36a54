package middleware

import (
	"errors"
	"log/slog"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter      ratelimit.Limiter
	rules        *ratelimit.Rules
	translations *i18n.Manager
	log          *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, translations *i18n.Manager, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter:      limiter,
		rules:        rules,
		translations: translations,
		log:          log,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		limit, window := m.rules.PerUser()
		result, err := m.limiter.Check(handlers.RequestContext(c), ratelimit.UserKey(userID), limit, window)
		if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if result == nil || !result.Allowed {
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			if c.Callback() != nil {
				_ = c.Respond()
			}
			return c.Send(m.translations.Translator(sender.LanguageCode).T("errors.rate_limited"))
		}

		return next(c)
	}
}
