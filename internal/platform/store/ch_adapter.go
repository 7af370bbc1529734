package store

import (
	"context"
	"errors"
	"fmt"

	"tagtime/internal/platform/store/ch"
)

// chClient is the slice of *ch.CH the store needs
type chClient interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// clickhouseAdapter narrows ch rows to store.Rows and checks insert shapes
type clickhouseAdapter struct {
	c chClient
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func newCHAdapter(c chClient) Clickhouse { return &clickhouseAdapter{c: c} }

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

// Insert takes a batch as [][]any or a single row as []any
func (a *clickhouseAdapter) Insert(ctx context.Context, table string, data any) error {
	switch rows := data.(type) {
	case [][]any:
		return a.c.Insert(ctx, table, rows)
	case []any:
		return a.c.Insert(ctx, table, [][]any{rows})
	default:
		return fmt.Errorf("store: clickhouse insert into %s: unsupported %T", table, data)
	}
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.c == nil {
		return errors.New("store: clickhouse not open")
	}
	return a.c.Ping(ctx)
}

func (a *clickhouseAdapter) Close() error { return a.c.Close() }

// chRows drops the error from driver Close to fit store.Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
