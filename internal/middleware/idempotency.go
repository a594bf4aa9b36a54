// Package middleware holds cross-cutting wrappers for bot handlers and HTTP handlers.
package middleware

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
	"github.com/Proton-105/vending-machine/internal/idempotency"
)

// Idempotency ensures a redelivered Telegram update does not feed the same coin twice.
func Idempotency(manager *idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			err := manager.Once(handlers.RequestContext(c), key, func(context.Context) error {
				return next(c)
			})
			if errors.Is(err, idempotency.ErrDuplicate) {
				log.Info("duplicate update skipped", slog.String("key", key))
				return nil
			}

			return err
		}
	}
}

func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return idempotency.GenerateKey("cb", cb.ID)
		}

		if cb.Message != nil {
			chatID := int64(0)
			if cb.Message.Chat != nil {
				chatID = cb.Message.Chat.ID
			}
			return idempotency.GenerateKey("cb-msg", chatID, cb.Message.ID)
		}
	}

	if msg := c.Message(); msg != nil {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		if msg.ID != 0 {
			return idempotency.GenerateKey("msg", chatID, msg.ID)
		}
	}

	return ""
}
