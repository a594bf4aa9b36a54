package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the vending machine fleet and its front-ends.
type Config struct {
	AppEnv    string          `mapstructure:"-"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Bot       BotConfig       `mapstructure:"bot"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Machine   MachineConfig   `mapstructure:"machine"`
	Journal   JournalConfig   `mapstructure:"journal"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type BotConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Token   string        `mapstructure:"token" validate:"required_if=Enabled true"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// NeedsRedis reports whether any configured backend talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.Journal.Backend == "redis" || c.RateLimit.Backend == "redis" || c.Dedup.Backend == "redis" || c.Jobs.Enabled
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

type MachineConfig struct {
	DefaultStock    int           `mapstructure:"default_stock" validate:"gte=0"`
	SessionTTL      time.Duration `mapstructure:"session_ttl" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
	MetricsInterval time.Duration `mapstructure:"metrics_interval" validate:"gte=0"`
}

type JournalConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory redis postgres"`
	MaxEntries int    `mapstructure:"max_entries" validate:"gte=0"`
}

type RateLimitConfig struct {
	Backend   string        `mapstructure:"backend" validate:"oneof=memory redis"`
	PerUser   int           `mapstructure:"per_user" validate:"gte=0"`
	Window    time.Duration `mapstructure:"window" validate:"gte=0"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// DSN returns the PostgreSQL connection string built from the postgres section.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// DedupConfig controls suppression of Telegram updates delivered more than once.
type DedupConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// JobsConfig controls the Redis-backed restock queue.
type JobsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Concurrency     int    `mapstructure:"concurrency" validate:"gte=0"`
	RestockSchedule string `mapstructure:"restock_schedule" validate:"required_if=Enabled true"`
	RestockLevel    int    `mapstructure:"restock_level" validate:"gte=0"`
}
