package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
	"github.com/Proton-105/vending-machine/internal/bot/keyboard"
	"github.com/Proton-105/vending-machine/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(extractCommandName(c), status, time.Since(start))

		return err
	}
}

// extractCommandName keeps label cardinality bounded: arguments and callback payloads are dropped.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		unique, _, err := keyboard.DecodeCallback(cb.Data)
		if err != nil {
			return "unknown"
		}
		return "callback:" + unique
	}

	if command, _ := handlers.ParseCommand(c.Text()); command != "" {
		return command
	}

	if c.Text() != "" {
		return "text"
	}

	return "unknown"
}
