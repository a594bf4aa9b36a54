// Command vendingbot serves a fleet of vending machines over Telegram, one machine per chat.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/vending-machine/internal/bot"
	"github.com/Proton-105/vending-machine/internal/database"
	"github.com/Proton-105/vending-machine/internal/fleet"
	"github.com/Proton-105/vending-machine/internal/health"
	"github.com/Proton-105/vending-machine/internal/i18n"
	"github.com/Proton-105/vending-machine/internal/idempotency"
	"github.com/Proton-105/vending-machine/internal/jobs"
	jobhandlers "github.com/Proton-105/vending-machine/internal/jobs/handlers"
	"github.com/Proton-105/vending-machine/internal/journal"
	"github.com/Proton-105/vending-machine/internal/lifecycle"
	"github.com/Proton-105/vending-machine/internal/middleware"
	"github.com/Proton-105/vending-machine/internal/ratelimit"
	"github.com/Proton-105/vending-machine/pkg/config"
	"github.com/Proton-105/vending-machine/pkg/graceful"
	"github.com/Proton-105/vending-machine/pkg/logger"
	"github.com/Proton-105/vending-machine/pkg/metrics"
	redisclient "github.com/Proton-105/vending-machine/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vendingbot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	appLog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Sentry:     cfg.Sentry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = appLog.Close() }()

	log := appLog.Logger
	slog.SetDefault(log)

	config.Watch(v,
		func(updated *config.Config) {
			if err := appLog.SetLevel(updated.Log.Level); err != nil {
				log.Warn("ignoring reloaded log level", slog.Any("error", err))
				return
			}
			log.Info("configuration reloaded", slog.String("log_level", updated.Log.Level))
		},
		func(err error) {
			log.Warn("configuration reload rejected", slog.Any("error", err))
		},
	)

	log.Info("starting vending machine bot",
		slog.String("env", cfg.AppEnv),
		slog.String("journal", cfg.Journal.Backend),
		slog.Bool("bot_enabled", cfg.Bot.Enabled),
	)

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log, 2*time.Second)

	var rdb *goredis.Client
	if cfg.Redis.Enabled || cfg.NeedsRedis() {
		rdb, err = redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
		shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
	}

	j, err := openJournal(ctx, *cfg, rdb, log, checker, shutdown)
	if err != nil {
		return err
	}

	service := fleet.NewService(fleet.Options{
		DefaultStock: cfg.Machine.DefaultStock,
		Journal:      j,
		Log:          log,
	})

	workers, cancelWorkers := context.WithCancel(ctx)
	shutdown.RegisterAt(lifecycle.StageWorkers, "workers", func(context.Context) error {
		cancelWorkers()
		return nil
	})

	go fleet.NewCleaner(service, log, cfg.Machine.SessionTTL, cfg.Machine.CleanupInterval).Run(workers)
	go metrics.NewStateCollector(service, cfg.Machine.MetricsInterval).Run(workers)

	if cfg.Jobs.Enabled {
		if err := startJobs(*cfg, service, log, shutdown); err != nil {
			return err
		}
	}

	rules := ratelimit.NewRules(cfg.RateLimit)
	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	if rules.Enabled() {
		_, window := rules.PerUser()
		go memoryLimiter.Run(workers, time.Minute, 2*window)
	}

	var dedupStore idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Dedup.Backend == "redis" {
		dedupStore = idempotency.NewRedisStore(rdb, log)
	}

	probes := lifecycle.NewProbes(log, checker)
	shutdown.RegisterAt(lifecycle.StageDrain, "probes", probes.Drain)

	if cfg.Bot.Enabled {
		translations, err := i18n.Load("en")
		if err != nil {
			return fmt.Errorf("load translations: %w", err)
		}

		limiter := ratelimit.New(cfg.RateLimit.Backend, rdb, memoryLimiter, log)

		b, err := bot.New(*cfg, log, bot.Deps{
			Fleet:        service,
			Translations: translations,
			RateLimit:    middleware.NewRateLimitMiddleware(limiter, rules, translations, log),
			Dedup:        idempotency.NewManager(dedupStore, cfg.Dedup.TTL, log),
		})
		if err != nil {
			return err
		}

		checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
		shutdown.RegisterAt(lifecycle.StageIngress, "bot", func(context.Context) error {
			b.Stop()
			return nil
		})

		go b.Start()
	}

	mux := graceful.NewMux(graceful.Routes{
		Machines:  service.Handler(),
		Health:    checker.Handler(),
		Liveness:  probes.LivenessHandler(),
		Readiness: probes.ReadinessHandler(),
	})
	server := graceful.NewServer(log, &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           logger.Middleware(middleware.New(log)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	serverCtx, stopServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- server.ListenAndServe(serverCtx) }()
	shutdown.RegisterAt(lifecycle.StageIngress, "http", func(context.Context) error {
		stopServer()
		return <-serverDone
	})

	select {
	case <-ctx.Done():
	case err := <-serverDone:
		// Put the result back for the shutdown hook.
		serverDone <- err
		log.Error("http server stopped unexpectedly", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("vending machine bot stopped")
	return nil
}

func openJournal(
	ctx context.Context,
	cfg config.Config,
	rdb *goredis.Client,
	log *slog.Logger,
	checker *health.Checker,
	shutdown *lifecycle.Shutdown,
) (journal.Journal, error) {
	switch cfg.Journal.Backend {
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis journal requires a redis connection")
		}
		return journal.NewRedisJournal(rdb, log, cfg.Journal.MaxEntries), nil

	case "postgres":
		db, err := database.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}

		if _, err := database.NewMigrator(db, log).Apply(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		checker.AddCheck("postgres", health.NewDBChecker(db))
		shutdown.Register("postgres", closeDB(db))
		return journal.NewPostgresJournal(db, log), nil

	default:
		return journal.NewMemoryJournal(cfg.Journal.MaxEntries), nil
	}
}

func startJobs(cfg config.Config, service *fleet.Service, log *slog.Logger, shutdown *lifecycle.Shutdown) error {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, cfg.Jobs.Concurrency, log)
	worker.RegisterHandler(jobs.TaskTypeRestock, jobhandlers.NewRestockHandler(service, log))
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start jobs worker: %w", err)
	}
	shutdown.RegisterAt(lifecycle.StageWorkers, "jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.RestockSchedule, cfg.Jobs.RestockLevel, log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled jobs: %w", err)
	}
	scheduler.Run()
	shutdown.RegisterAt(lifecycle.StageWorkers, "jobs-scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})

	return nil
}

func closeDB(db *sql.DB) func(context.Context) error {
	return func(context.Context) error {
		return db.Close()
	}
}
