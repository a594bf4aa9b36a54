package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, _, err := LoadFile(path, "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 42, cfg.Machine.DefaultStock)
	assert.Equal(t, 30*time.Minute, cfg.Machine.SessionTTL)
	assert.Equal(t, "memory", cfg.Journal.Backend)
	assert.False(t, cfg.Bot.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Dedup.TTL)
	assert.False(t, cfg.NeedsRedis())
	assert.False(t, cfg.Jobs.Enabled)
	assert.Equal(t, "0 */6 * * *", cfg.Jobs.RestockSchedule)
}

func TestLoadFile_Overrides(t *testing.T) {
	path := writeConfig(t, `
machine:
  default_stock: 5
  session_ttl: 2m
journal:
  backend: redis
  max_entries: 50
postgres:
  user: vend
  password: secret
  name: vending
`)

	cfg, _, err := LoadFile(path, "test")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Machine.DefaultStock)
	assert.Equal(t, 2*time.Minute, cfg.Machine.SessionTTL)
	assert.Equal(t, "redis", cfg.Journal.Backend)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, 50, cfg.Journal.MaxEntries)
	assert.Equal(t, "host=localhost port=5432 user=vend password=secret dbname=vending sslmode=disable", cfg.Postgres.DSN())
}

func TestLoadFile_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "unknown journal backend", body: "journal:\n  backend: mongo\n"},
		{name: "bot without token", body: "bot:\n  enabled: true\n"},
		{name: "sentry without dsn", body: "sentry:\n  enabled: true\n"},
		{name: "bad log level", body: "log:\n  level: loud\n"},
		{name: "negative stock", body: "machine:\n  default_stock: -1\n"},
		{name: "jobs without schedule", body: "jobs:\n  enabled: true\n  restock_schedule: \"\"\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadFile(writeConfig(t, tc.body), "test")
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), "test")
	assert.Error(t, err)
}
