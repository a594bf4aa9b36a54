package journal

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"

	apperrors "github.com/Proton-105/vending-machine/internal/errors"
)

const (
	insertEntryQuery = `
INSERT INTO vending_journal (id, machine_id, kind, product, price, coins, units, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listEntriesQuery = `
SELECT id, machine_id, kind, product, price, coins, units, recorded_at FROM (
	SELECT id, machine_id, kind, product, price, coins, units, recorded_at
	FROM vending_journal
	WHERE machine_id = $1
	ORDER BY recorded_at DESC
	LIMIT $2
) newest
ORDER BY recorded_at ASC`
)

// PostgresJournal stores entries in the vending_journal table created by the database migrations.
type PostgresJournal struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresJournal wraps an open database handle.
func NewPostgresJournal(db *sql.DB, log *slog.Logger) *PostgresJournal {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresJournal{db: db, log: log}
}

func (j *PostgresJournal) Append(ctx context.Context, entry Entry) error {
	entry, err := prepare(entry)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx, insertEntryQuery,
		entry.ID,
		entry.MachineID,
		string(entry.Kind),
		entry.Product,
		entry.Price,
		pq.Array(entry.Coins),
		entry.Units,
		entry.At,
	)
	if err != nil {
		j.log.Error("failed to insert journal entry", "machine_id", entry.MachineID, "error", err)
		return apperrors.NewStorageError("postgres", err)
	}

	return nil
}

func (j *PostgresJournal) List(ctx context.Context, machineID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultMaxEntries
	}

	rows, err := j.db.QueryContext(ctx, listEntriesQuery, machineID, limit)
	if err != nil {
		j.log.Error("failed to query journal", "machine_id", machineID, "error", err)
		return nil, apperrors.NewStorageError("postgres", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			kind  string
			coins []string
		)
		if err := rows.Scan(&entry.ID, &entry.MachineID, &kind, &entry.Product, &entry.Price, pq.Array(&coins), &entry.Units, &entry.At); err != nil {
			return nil, apperrors.NewStorageError("postgres", err)
		}
		entry.Kind = Kind(kind)
		if len(coins) > 0 {
			entry.Coins = coins
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("postgres", err)
	}

	return entries, nil
}

// HealthCheck pings the database.
func (j *PostgresJournal) HealthCheck(ctx context.Context) error {
	return j.db.PingContext(ctx)
}
