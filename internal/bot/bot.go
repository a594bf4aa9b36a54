// Package bot exposes the vending fleet as a Telegram bot: every chat operates its own machine.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/vending-machine/internal/bot/handlers"
	"github.com/Proton-105/vending-machine/internal/bot/keyboard"
	errors "github.com/Proton-105/vending-machine/internal/errors"
	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/idempotency"
	"github.com/Proton-105/vending-machine/internal/middleware"
	"github.com/Proton-105/vending-machine/pkg/config"
)

// Deps are the collaborators the bot needs beyond configuration.
type Deps struct {
	Fleet        handlers.Fleet
	Translations *i18n.Manager
	RateLimit    *middleware.RateLimitMiddleware
	Dedup        *idempotency.Manager
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	keyboard   *keyboard.Builder
	errHandler *errors.Handler
	vending    *handlers.Vending
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Bot.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.Bot.Timeout},
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := newBot(cfg, log, deps)
	b.telebot = tb

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

func newBot(cfg config.Config, log *slog.Logger, deps Deps) *Bot {
	kb := keyboard.NewBuilder(log)

	b := &Bot{
		log:        log,
		cfg:        cfg,
		router:     NewRouter(log),
		keyboard:   kb,
		errHandler: errors.NewHandler(log, cfg.Sentry.Enabled),
		vending:    handlers.NewVending(deps.Fleet, kb, deps.Translations, log),
	}

	b.setupRouter(deps.Dedup)
	return b
}

// Start registers the command menu and runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if err := b.telebot.SetCommands(commandMenu()); err != nil {
		b.log.Warn("failed to register bot commands", slog.Any("error", err))
	}

	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(dedup *idempotency.Manager) {
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(middleware.Idempotency(dedup, b.log))
	b.router.Use(middleware.Metrics)

	v := b.vending
	b.router.RegisterCommand(CommandStart, v.Start)
	b.router.RegisterCommand(CommandHelp, v.Start)
	b.router.RegisterCommand(CommandInsert, v.Insert)
	b.router.RegisterCommand(CommandSelect, v.Select)
	b.router.RegisterCommand(CommandReturn, v.Return)
	b.router.RegisterCommand(CommandDisplay, v.Display)
	b.router.RegisterCommand(CommandTray, v.Tray)
	b.router.RegisterCommand(CommandStatus, v.Status)
	b.router.RegisterCommand(CommandReset, v.Reset)
	b.router.RegisterCommand(CommandHistory, v.History)

	for _, prefix := range []string{CallbackCoin, CallbackProduct, CallbackReturn, CallbackDisplay} {
		b.router.RegisterCallback(prefix, handlers.CallbackHandler(v.Callback))
	}

	b.router.SetDefault(v.Text)
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

func commandMenu() []telebot.Command {
	return []telebot.Command{
		{Text: "start", Description: "Show the machine"},
		{Text: "insert", Description: "Insert a coin: nickel, dime, quarter or penny"},
		{Text: "select", Description: "Buy a product: cola, chips or candy"},
		{Text: "return", Description: "Press the coin return button"},
		{Text: "display", Description: "Read the display"},
		{Text: "tray", Description: "Look into the coin return"},
		{Text: "status", Description: "Show balance, stock and coin return"},
		{Text: "history", Description: "Show recent activity"},
		{Text: "reset", Description: "Restock the machine"},
	}
}
