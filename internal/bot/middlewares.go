package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
	errors "github.com/Proton-105/vending-machine/internal/errors"
	"github.com/Proton-105/vending-machine/pkg/logger"
)

const defaultUserMessage = "⚠️ Something went wrong. Please try again later."

// RecoveryMiddleware turns a handler panic into a critical error reply.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.Error("panic recovered in handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				appErr := errors.NewStateError("handler panicked", fmt.Errorf("panic recovered: %v", r))
				appErr.Severity = errors.SeverityCritical
				if sendErr := replyWithError(c, errHandler, appErr); sendErr != nil {
					log.Error("failed to notify user about panic", slog.Any("error", sendErr))
				}
				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware reports handler errors and answers the user instead of failing the update.
func ErrorHandlingMiddleware(errHandler *errors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if err := next(c); err != nil {
				_ = replyWithError(c, errHandler, err)
			}
			return nil
		}
	}
}

func replyWithError(c telebot.Context, errHandler *errors.Handler, err error) error {
	msg := defaultUserMessage
	if errHandler != nil {
		if userMsg, _ := errHandler.Handle(handlers.RequestContext(c), err); userMsg != "" {
			msg = userMsg
		}
	}

	if c == nil {
		return nil
	}
	return c.Send(msg)
}

// LoggingMiddleware attaches a correlation ID to the update and logs its outcome.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			ctx := logger.WithCorrelationID(context.Background())
			c.Set(handlers.RequestContextKey, ctx)

			updateLog := log.With(
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Int64("user_id", senderID(c)),
				slog.String("machine_id", handlers.MachineID(c)),
				slog.String("action", updateAction(c)),
			)

			updateLog.Debug("handling update")
			err := next(c)
			updateLog.Info("handled update",
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

func senderID(c telebot.Context) int64 {
	if c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

func updateAction(c telebot.Context) string {
	if cb := c.Callback(); cb != nil {
		return cb.Data
	}
	return c.Text()
}
