package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tagtime/internal/platform/store/sqlite"
	"tagtime/internal/platform/store/trace"
)

// sqliteAdapter wraps sqlite.DB and implements RowQuerier + TxRunner for the
// local ping log. SQL text is written with $N placeholders and rebound here
type sqliteAdapter struct {
	d *sqlite.DB
}

func newSQLiteAdapter(d *sqlite.DB) *sqliteAdapter { return &sqliteAdapter{d: d} }

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.d == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.d.SQL.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.d.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return execSQL(ctx, a.d.SQL, a.tracer(), q, args)
}

func (a *sqliteAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return querySQL(ctx, a.d.SQL, a.tracer(), q, args)
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return queryRowSQL(ctx, a.d.SQL, a.tracer(), q, args)
}

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTxQuerier{tx: tx, t: a.tracer()}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (a *sqliteAdapter) tracer() sqlTracer {
	return sqlTracer{t: a.d.Tracer, slowMs: a.d.SlowMs}
}

// sqlConn is the part of *sql.DB and *sql.Tx we use
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlTracer struct {
	t      trace.QueryTracer
	slowMs int
}

func (s sqlTracer) emit(ctx context.Context, q string, args []any, start time.Time, err error) {
	trace.Emit(ctx, s.t, "sqlite", s.slowMs, q, args, start, err)
}

func execSQL(ctx context.Context, c sqlConn, tr sqlTracer, q string, args []any) (CommandTag, error) {
	start := time.Now()
	res, err := c.ExecContext(ctx, sqlite.Rebind(q), args...)
	tr.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	return sqlTag{n: n}, nil
}

func querySQL(ctx context.Context, c sqlConn, tr sqlTracer, q string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := c.QueryContext(ctx, sqlite.Rebind(q), args...)
	tr.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func queryRowSQL(ctx context.Context, c sqlConn, tr sqlTracer, q string, args []any) Row {
	start := time.Now()
	r := c.QueryRowContext(ctx, sqlite.Rebind(q), args...)
	return sqlRow{r: r, after: func(err error) { tr.emit(ctx, q, args, start, err) }}
}

// sqlTxQuerier satisfies RowQuerier inside a database/sql transaction
type sqlTxQuerier struct {
	tx *sql.Tx
	t  sqlTracer
}

func (q sqlTxQuerier) Exec(ctx context.Context, s string, args ...any) (CommandTag, error) {
	return execSQL(ctx, q.tx, q.t, s, args)
}

func (q sqlTxQuerier) Query(ctx context.Context, s string, args ...any) (Rows, error) {
	return querySQL(ctx, q.tx, q.t, s, args)
}

func (q sqlTxQuerier) QueryRow(ctx context.Context, s string, args ...any) Row {
	return queryRowSQL(ctx, q.tx, q.t, s, args)
}

// adapters for database/sql to our tiny Row/Rows/CommandTag

type sqlRow struct {
	r     *sql.Row
	after func(error)
}

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return fmt.Sprintf("ROWS %d", t.n) }
func (t sqlTag) RowsAffected() int64 { return t.n }
