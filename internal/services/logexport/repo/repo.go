// Package repo mirrors the ping log into ClickHouse
package repo

import (
	"context"
	"errors"
	"time"

	"tagtime/internal/platform/store"
	tim "tagtime/internal/platform/time"
	ledom "tagtime/internal/services/logexport/domain"
	pdom "tagtime/internal/services/pings/domain"
)

// Table is the mirror table; rows are replaced by seed on merge
const Table = "tagtime.pings"

var ddl = []string{
	`CREATE DATABASE IF NOT EXISTS tagtime`,
	`CREATE TABLE IF NOT EXISTS tagtime.pings
	(
	  seed        UInt64,
	  ping_time   DateTime64(6, 'UTC'),
	  answered    UInt8,
	  answered_at Nullable(DateTime64(6, 'UTC')),
	  tags        Array(LowCardinality(String)),
	  exported_at DateTime64(6, 'UTC')
	)
	ENGINE = ReplacingMergeTree(exported_at)
	PARTITION BY toYYYYMM(ping_time)
	ORDER BY seed`,
}

// NewCH returns the ClickHouse mirror
func NewCH(ch store.Clickhouse) ledom.MirrorRepo { return &chRepo{ch: ch} }

type chRepo struct{ ch store.Clickhouse }

// EnsureSchema creates the database and table when missing
func (r *chRepo) EnsureSchema(ctx context.Context) error {
	if r.ch == nil {
		return errors.New("logexport: clickhouse not configured")
	}
	for _, q := range ddl {
		if err := r.ch.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Upsert appends one version of every ping; the newest exported_at wins
func (r *chRepo) Upsert(ctx context.Context, ps []pdom.Ping, at time.Time) error {
	if r.ch == nil {
		return errors.New("logexport: clickhouse not configured")
	}
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		var answeredAt *time.Time
		if p.AnsweredAt != nil {
			answeredAt = tim.Ptr(p.AnsweredAt.UTC())
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		rows = append(rows, []any{
			p.Seed,
			p.Time.UTC(),
			boolU8(p.Answered),
			answeredAt,
			tags,
			at.UTC(),
		})
	}
	return r.ch.Insert(ctx, Table, rows)
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
