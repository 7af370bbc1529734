package store

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Migration is one forward-only schema step. Statements must be valid on
// every dialect the owning repo supports
type Migration struct {
	Version int
	Name    string
	Stmts   []string
}

const createMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_us BIGINT NOT NULL
)`

// Migrate applies every step newer than the recorded schema version, each in
// its own transaction, and returns how many were applied
func Migrate(ctx context.Context, db TxRunner, steps []Migration) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("migrate: nil db")
	}
	if _, err := db.Exec(ctx, createMigrations); err != nil {
		return 0, fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	current, err := Scalar[int64](ctx, db, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, fmt.Errorf("migrate: read current version: %w", err)
	}

	ordered := slices.Clone(steps)
	slices.SortFunc(ordered, func(a, b Migration) int { return a.Version - b.Version })

	applied := 0
	for _, m := range ordered {
		if int64(m.Version) <= current {
			continue
		}
		err := db.Tx(ctx, func(q RowQuerier) error {
			for i, stmt := range m.Stmts {
				if _, err := q.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("step %d: %w", i, err)
				}
			}
			_, err := q.Exec(ctx,
				`INSERT INTO schema_migrations (version, name, applied_us) VALUES ($1, $2, $3)`,
				m.Version, m.Name, time.Now().UnixMicro())
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migrate: version %d (%s): %w", m.Version, m.Name, err)
		}
		applied++
	}
	return applied, nil
}
