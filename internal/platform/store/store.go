// Package store opens the ping log backends: sqlite for one device,
// postgres when several share a log, and an optional clickhouse mirror
package store

import (
	"context"
	"errors"
	"fmt"

	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store/trace"
)

// Store holds whichever backends Open enabled. The zero value has none
type Store struct {
	Log logger.Logger

	// DB is the ping log, nil when no driver is configured
	DB      TxRunner
	Dialect Dialect

	// CH is the export mirror, nil unless a clickhouse url is set
	CH Clickhouse

	tracer trace.QueryTracer
}

// Row is a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set; callers must Close it
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier runs $N placeholder SQL on either sql backend
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also run fn in one transaction,
// committing only when fn returns nil
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar sink the log export writes to
type Clickhouse interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open applies opts and connects the backends cfg asks for
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	var err error
	switch cfg.Driver {
	case "":
	case DialectPostgres:
		s.DB, err = openPG(ctx, cfg, s)
	case DialectSQLite:
		s.DB, err = openSQLite(ctx, cfg, s)
	default:
		err = fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	s.Dialect = cfg.Driver

	if cfg.CH.Enabled {
		if s.CH, err = openCH(ctx, cfg, s); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

// Guard pings every backend that supports it and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("store: nil")
	}
	var errs []error
	check := func(name string, b any) {
		if p, ok := b.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	check(string(s.Dialect), s.DB)
	check("ch", s.CH)
	return errors.Join(errs...)
}

// Close closes every open backend and joins the failures
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.DB.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
