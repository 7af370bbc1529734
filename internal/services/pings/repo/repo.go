// Package repo provides the sql ping log repository
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tagtime/internal/modkit/repokit"
	"tagtime/internal/platform/store"
	"tagtime/internal/services/pings/domain"
)

// NewSQL returns a binder over the ping tables. SQL is portable between
// postgres and sqlite: $N placeholders, BIGINT seeds and unix microseconds
func NewSQL() repokit.Binder[domain.StorageRepo] { return sqlBinder{} }

type sqlBinder struct{}

func (sqlBinder) Bind(q repokit.Queryer) domain.StorageRepo { return &sqlStore{q: q} }

type sqlStore struct{ q repokit.Queryer }

// tagChunk bounds IN lists
const tagChunk = 500

const pingCols = `seed, time_us, created_us, answered_us`

func us(t time.Time) int64 { return t.UnixMicro() }

func fromUS(v int64) time.Time { return time.UnixMicro(v).UTC() }

func scanPing(r store.Row) (domain.Ping, error) {
	var (
		seed, at, created int64
		answered          *int64
	)
	if err := r.Scan(&seed, &at, &created, &answered); err != nil {
		return domain.Ping{}, err
	}
	p := domain.Ping{Seed: uint64(seed), Time: fromUS(at), CreatedAt: fromUS(created)}
	if answered != nil {
		a := fromUS(*answered)
		p.Answered, p.AnsweredAt = true, &a
	}
	return p, nil
}

func (s *sqlStore) InsertIfAbsent(ctx context.Context, p domain.Ping) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO pings (seed, time_us, created_us)
		VALUES ($1, $2, $3)
		ON CONFLICT (seed) DO NOTHING`,
		int64(p.Seed), us(p.Time), us(p.CreatedAt),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *sqlStore) TimeOf(ctx context.Context, seed uint64) (time.Time, bool, error) {
	v, err := store.Scalar[int64](ctx, s.q, `SELECT time_us FROM pings WHERE seed = $1`, int64(seed))
	if store.IsNoRows(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return fromUS(v), true, nil
}

func (s *sqlStore) Get(ctx context.Context, seed uint64) (domain.Ping, error) {
	return store.One(ctx, s.q, scanPing,
		`SELECT `+pingCols+` FROM pings WHERE seed = $1`, int64(seed))
}

func (s *sqlStore) Latest(ctx context.Context) (domain.Ping, bool, error) {
	ps, err := store.Many(ctx, s.q, scanPing,
		`SELECT `+pingCols+` FROM pings ORDER BY time_us DESC LIMIT 1`)
	if err != nil || len(ps) == 0 {
		return domain.Ping{}, false, err
	}
	return ps[0], true, nil
}

func (s *sqlStore) LatestBefore(ctx context.Context, t time.Time) (domain.Ping, error) {
	return store.One(ctx, s.q, scanPing,
		`SELECT `+pingCols+` FROM pings WHERE time_us < $1 ORDER BY time_us DESC LIMIT 1`, us(t))
}

func (s *sqlStore) MarkAnswered(ctx context.Context, seed uint64, at time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE pings SET answered_us = $2 WHERE seed = $1 AND answered_us IS NULL`,
		int64(seed), us(at))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *sqlStore) AttachTags(ctx context.Context, seed uint64, tags []string, at time.Time) error {
	for _, t := range tags {
		if _, err := s.q.Exec(ctx,
			`INSERT INTO tags (tag, created_us) VALUES ($1, $2) ON CONFLICT (tag) DO NOTHING`,
			t, us(at)); err != nil {
			return fmt.Errorf("tag %q: %w", t, err)
		}
		if _, err := s.q.Exec(ctx,
			`INSERT INTO ping_tags (seed, tag) VALUES ($1, $2) ON CONFLICT (seed, tag) DO NOTHING`,
			int64(seed), t); err != nil {
			return fmt.Errorf("link %q: %w", t, err)
		}
	}
	return nil
}

func (s *sqlStore) TagsOf(ctx context.Context, seeds []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(seeds))
	for start := 0; start < len(seeds); start += tagChunk {
		chunk := seeds[start:min(start+tagChunk, len(seeds))]
		args := make([]any, len(chunk))
		marks := make([]string, len(chunk))
		for i, sd := range chunk {
			args[i] = int64(sd)
			marks[i] = fmt.Sprintf("$%d", i+1)
		}
		type pair struct {
			seed uint64
			tag  string
		}
		pairs, err := store.Many(ctx, s.q, func(r store.Row) (pair, error) {
			var sd int64
			var t string
			err := r.Scan(&sd, &t)
			return pair{uint64(sd), t}, err
		}, `SELECT seed, tag FROM ping_tags WHERE seed IN (`+strings.Join(marks, ", ")+`) ORDER BY seed, tag`, args...)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			out[p.seed] = append(out[p.seed], p.tag)
		}
	}
	return out, nil
}

func (s *sqlStore) Range(ctx context.Context, since, until time.Time, limit int) ([]domain.Ping, error) {
	sql := `SELECT ` + pingCols + ` FROM pings WHERE time_us >= $1 AND time_us < $2 ORDER BY time_us`
	args := []any{us(since), us(until)}
	if limit > 0 {
		sql += ` LIMIT $3`
		args = append(args, limit)
	}
	return store.Many(ctx, s.q, scanPing, sql, args...)
}

func (s *sqlStore) Unanswered(ctx context.Context, before time.Time, limit int) ([]domain.Ping, error) {
	sql := `SELECT ` + pingCols + ` FROM pings WHERE answered_us IS NULL AND time_us < $1 ORDER BY time_us DESC`
	args := []any{us(before)}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}
	return store.Many(ctx, s.q, scanPing, sql, args...)
}

func (s *sqlStore) Vocabulary(ctx context.Context) ([]domain.TagUse, error) {
	return store.Many(ctx, s.q, func(r store.Row) (domain.TagUse, error) {
		var u domain.TagUse
		var n int64
		err := r.Scan(&u.Tag, &n)
		u.Uses = int(n)
		return u, err
	}, `
		SELECT t.tag, COUNT(pt.seed)
		  FROM tags t
		  LEFT JOIN ping_tags pt ON pt.tag = t.tag
		 GROUP BY t.tag
		 ORDER BY t.tag`)
}
