// Package database opens the journal database and applies its schema migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/Proton-105/vending-machine/pkg/config"
)

//go:embed migrations/*.sql
var embedded embed.FS

// MigrationsDir is the root of the embedded migrations.
const MigrationsDir = "migrations"

const (
	createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL
)`
	selectVersions = `SELECT version FROM schema_migrations`
	insertVersion  = `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrator applies .up.sql migrations in lexical order, each once.
type Migrator struct {
	db  *sql.DB
	fs  fs.FS
	dir string
	log *slog.Logger
	now func() time.Time
}

// NewMigrator constructs a Migrator over the embedded journal migrations.
func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	return NewMigratorFS(db, embedded, MigrationsDir, log)
}

// NewMigratorFS constructs a Migrator reading migrations from dir inside fsys.
func NewMigratorFS(db *sql.DB, fsys fs.FS, dir string, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{
		db:  db,
		fs:  fsys,
		dir: dir,
		log: log,
		now: time.Now,
	}
}

// Apply runs every pending migration and returns the names it applied.
func (m *Migrator) Apply(ctx context.Context) ([]string, error) {
	files, err := ListMigrations(m.fs, m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %q: %w", m.dir, err)
	}

	baseLog := m.log.With(slog.String("dir", m.dir))
	if len(files) == 0 {
		baseLog.Info("no .up.sql migrations found")
		return nil, nil
	}

	if _, err := m.db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range files {
		if applied[name] {
			continue
		}

		if err := m.applyFile(ctx, baseLog, name); err != nil {
			return ran, err
		}
		ran = append(ran, name)
	}

	baseLog.Info("migrations applied", slog.Int("count", len(ran)), slog.Int("total", len(files)))
	return ran, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, selectVersions)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func (m *Migrator) applyFile(ctx context.Context, baseLog *slog.Logger, name string) error {
	scopedLog := baseLog.With(slog.String("file", name))
	scopedLog.Info("applying migration")

	data, err := fs.ReadFile(m.fs, path.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("read migration %q: %w", name, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for migration %q: %w", name, err)
	}

	statement := strings.TrimSpace(string(data))
	if statement == "" {
		scopedLog.Warn("migration is empty, recording it anyway")
	} else if _, execErr := tx.ExecContext(ctx, statement); execErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			scopedLog.Error("rollback error", slog.Any("error", rbErr))
		}
		return fmt.Errorf("execute migration %q: %w", name, execErr)
	}

	if _, err := tx.ExecContext(ctx, insertVersion, name, m.now().UTC()); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			scopedLog.Error("rollback error", slog.Any("error", rbErr))
		}
		return fmt.Errorf("record migration %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %q: %w", name, err)
	}

	return nil
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

// ListMigrations returns all .up.sql files in root in lexical order.
func ListMigrations(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isUpMigration(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}
