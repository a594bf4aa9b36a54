// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads ./configs/<APP_ENV>.yaml plus environment overrides, validates it, and returns the result.
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine; the environment itself may already be populated.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return LoadFile(fmt.Sprintf("./configs/%s.yaml", env), env)
}

// LoadFile reads configuration from path, applying defaults and environment overrides.
func LoadFile(path, env string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	cfg.AppEnv = env

	return cfg, v, nil
}

// Watch re-reads the configuration file whenever it changes and hands valid results to onChange.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}

		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("bot.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("machine.default_stock", 42)
	v.SetDefault("machine.session_ttl", 30*time.Minute)
	v.SetDefault("machine.cleanup_interval", time.Minute)
	v.SetDefault("machine.metrics_interval", 10*time.Second)

	v.SetDefault("journal.backend", "memory")
	v.SetDefault("journal.max_entries", 1000)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.per_user", 30)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("dedup.backend", "memory")
	v.SetDefault("dedup.ttl", 24*time.Hour)

	v.SetDefault("jobs.concurrency", 2)
	v.SetDefault("jobs.restock_schedule", "0 */6 * * *")
	v.SetDefault("jobs.restock_level", 42)
}
