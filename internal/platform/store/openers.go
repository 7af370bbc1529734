package store

import (
	"context"
	"fmt"
	"time"

	"tagtime/internal/platform/logger"
	chx "tagtime/internal/platform/store/ch"
	"tagtime/internal/platform/store/pg"
	"tagtime/internal/platform/store/sqlite"
)

var after = time.After

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	tracer := s.tracerFor("pg", cfg.PG.LogSQL)

	var opts []pg.Option
	if tracer != nil {
		opts = append(opts, pg.WithTracer(tracer))
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:              cfg.PG.URL,
		AppName:          cfg.AppName,
		MaxConns:         cfg.PG.MaxConns,
		SlowMs:           cfg.PG.SlowQueryMs,
		StatementTimeout: cfg.PG.StatementTimeout,
	}, opts...)
	if err != nil {
		return nil, err
	}

	if err := waitReady(ctx, s.Log, p.Ping, cfg.PG.ConnectRetries, cfg.PG.PingTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

// waitReady pings until the server answers, doubling the pause between
// attempts up to 2s. attempts <= 0 means 20, timeout <= 0 means 3s per ping
func waitReady(ctx context.Context, log logger.Logger, ping func(context.Context) error, attempts int, timeout time.Duration) error {
	if attempts <= 0 {
		attempts = 20
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pause := 150 * time.Millisecond
	var err error
	for i := 1; ; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			return fmt.Errorf("postgres not ready after %d attempts: %w", attempts, err)
		}
		log.Warn().Err(err).Int("attempt", i).Dur("backoff", pause).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(pause):
		}
		pause = min(2*pause, 2*time.Second)
	}
}

// openSQLite opens the local database file and wraps it with the sqlite adapter
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	tracer := s.tracerFor("sqlite", cfg.SQLite.LogSQL)
	db, err := sqlite.Open(ctx, sqlite.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
		SlowMs:      cfg.SQLite.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newSQLiteAdapter(db), nil
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
