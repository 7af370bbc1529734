package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/store/ch"
	"tagtime/internal/platform/store/trace"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: DialectSQLite,
		SQLite: SQLiteConfig{Path: MemoryPath},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "oracle"})
	if err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("want unknown driver error, got %v", err)
	}
}

func TestOpen_NoDriverIsEmpty(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.DB != nil || s.CH != nil {
		t.Fatalf("expected no backends, got %+v", s)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_OptionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Open(context.Background(), Config{}, func(*Store) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want option error, got %v", err)
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "pings.db")
	s, err := Open(context.Background(), Config{
		Driver: DialectSQLite,
		SQLite: SQLiteConfig{Path: path, LogSQL: true},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(context.Background())

	if s.Dialect != DialectSQLite {
		t.Fatalf("dialect = %q", s.Dialect)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
}

func TestSQLite_ExecQueryTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMemory(t).DB

	if _, err := db.Exec(ctx, `CREATE TABLE t (seed BIGINT PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	tag, err := db.Exec(ctx, `INSERT INTO t (seed, name) VALUES ($1, $2), ($3, $4)`, int64(-5), "neg", int64(7), "pos")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tag.RowsAffected() != 2 || tag.String() != "ROWS 2" {
		t.Fatalf("tag = %s", tag)
	}

	// placeholders bind by number, not by order of appearance
	var name string
	if err := db.QueryRow(ctx, `SELECT name FROM t WHERE seed = $2 OR seed = $1 AND name = '$1'`, int64(0), int64(7)).Scan(&name); err != nil {
		t.Fatalf("queryrow: %v", err)
	}
	if name != "pos" {
		t.Fatalf("name = %q", name)
	}

	rs, err := db.Query(ctx, `SELECT seed, name FROM t ORDER BY seed`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cols := rs.Columns(); len(cols) != 2 || cols[0] != "seed" {
		t.Fatalf("columns = %v", cols)
	}
	var seeds []int64
	for rs.Next() {
		var s int64
		var n string
		if err := rs.Scan(&s, &n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		seeds = append(seeds, s)
	}
	rs.Close()
	if len(seeds) != 2 || seeds[0] != -5 || seeds[1] != 7 {
		t.Fatalf("seeds = %v", seeds)
	}

	rollback := errors.New("rollback")
	err = db.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO t (seed, name) VALUES ($1, $2)`, int64(9), "gone"); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("tx err = %v", err)
	}
	n, err := Scalar[int64](ctx, db, `SELECT COUNT(*) FROM t`)
	if err != nil || n != 2 {
		t.Fatalf("count after rollback = %d, %v", n, err)
	}

	err = db.Tx(ctx, func(q RowQuerier) error {
		return ExecOne(ctx, q, `INSERT INTO t (seed, name) VALUES ($1, $2)`, int64(9), "kept")
	})
	if err != nil {
		t.Fatalf("tx commit: %v", err)
	}
	n, _ = Scalar[int64](ctx, db, `SELECT COUNT(*) FROM t`)
	if n != 3 {
		t.Fatalf("count after commit = %d", n)
	}
}

func TestHelpers_OneManyExecOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMemory(t).DB
	if _, err := db.Exec(ctx, `CREATE TABLE t (seed BIGINT PRIMARY KEY)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	scan := func(r Row) (int64, error) {
		var v int64
		return v, r.Scan(&v)
	}

	if _, err := One(ctx, db, scan, `SELECT seed FROM t`); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("One on empty = %v", err)
	}
	if err := ExecOne(ctx, db, `DELETE FROM t WHERE seed = $1`, 1); err == nil {
		t.Fatalf("ExecOne on zero rows should fail")
	}

	for _, s := range []int64{3, 1, 2} {
		if err := ExecOne(ctx, db, `INSERT INTO t (seed) VALUES ($1)`, s); err != nil {
			t.Fatalf("insert %d: %v", s, err)
		}
	}
	got, err := Many(ctx, db, scan, `SELECT seed FROM t ORDER BY seed`)
	if err != nil || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Many = %v, %v", got, err)
	}
	one, err := One(ctx, db, scan, `SELECT seed FROM t WHERE seed = $1`, 2)
	if err != nil || one != 2 {
		t.Fatalf("One = %d, %v", one, err)
	}
	if _, err := One(ctx, db, scan, `SELECT seed FROM t`); err == nil {
		t.Fatalf("One over many rows should fail")
	}

	var missing int64
	err = db.QueryRow(ctx, `SELECT seed FROM t WHERE seed = 99`).Scan(&missing)
	if !IsNoRows(err) {
		t.Fatalf("IsNoRows(%v) = false", err)
	}
	if IsNoRows(errors.New("other")) {
		t.Fatalf("IsNoRows on other error = true")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMemory(t).DB
	steps := []Migration{
		{Version: 2, Name: "second", Stmts: []string{`CREATE INDEX t_name ON t (name)`}},
		{Version: 1, Name: "first", Stmts: []string{`CREATE TABLE t (seed BIGINT PRIMARY KEY, name TEXT)`}},
	}

	n, err := Migrate(ctx, db, steps)
	if err != nil || n != 2 {
		t.Fatalf("first run n=%d err=%v", n, err)
	}
	n, err = Migrate(ctx, db, steps)
	if err != nil || n != 0 {
		t.Fatalf("second run n=%d err=%v", n, err)
	}

	v, err := Scalar[int64](ctx, db, `SELECT MAX(version) FROM schema_migrations`)
	if err != nil || v != 2 {
		t.Fatalf("version = %d, %v", v, err)
	}
}

func TestMigrate_FailureRollsBackStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openMemory(t).DB
	steps := []Migration{
		{Version: 1, Name: "bad", Stmts: []string{`CREATE TABLE ok (x INTEGER)`, `NOT SQL`}},
	}
	n, err := Migrate(ctx, db, steps)
	if err == nil || n != 0 {
		t.Fatalf("want failure, got n=%d err=%v", n, err)
	}
	if _, err := db.Exec(ctx, `SELECT x FROM ok`); err == nil {
		t.Fatalf("table from the failed step should not exist")
	}
	if _, err := Migrate(ctx, nil, steps); err == nil {
		t.Fatalf("nil db should fail")
	}
}

// fakeTxNoPing satisfies TxRunner but not Pinger
type fakeTxNoPing struct{}

func (f *fakeTxNoPing) Tx(ctx context.Context, fn func(q RowQuerier) error) error { return nil }
func (f *fakeTxNoPing) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return nil, nil
}
func (f *fakeTxNoPing) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, nil
}
func (f *fakeTxNoPing) QueryRow(ctx context.Context, sql string, args ...any) Row { return nil }

// fakeTxWithPing satisfies TxRunner and Pinger
type fakeTxWithPing struct {
	fakeTxNoPing
	err    error
	closed bool
}

func (f *fakeTxWithPing) Ping(context.Context) error { return f.err }
func (f *fakeTxWithPing) Close() error               { f.closed = true; return nil }

func TestGuard(t *testing.T) {
	t.Parallel()

	var nilStore *Store
	if err := nilStore.Guard(context.Background()); err == nil {
		t.Fatalf("nil store should return error")
	}
	if err := (&Store{}).Guard(context.Background()); err != nil {
		t.Fatalf("no seams = %v", err)
	}
	if err := (&Store{DB: &fakeTxNoPing{}}).Guard(context.Background()); err != nil {
		t.Fatalf("non pinger should be ignored, got %v", err)
	}

	s := &Store{
		DB:      &fakeTxWithPing{err: errors.New("db down")},
		Dialect: DialectSQLite,
		CH:      newCHAdapter(&fakeCH{pingErr: errors.New("ch down")}),
	}
	err := s.Guard(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sqlite: db down") || !strings.Contains(err.Error(), "ch: ch down") {
		t.Fatalf("joined guard error = %v", err)
	}
}

func TestClose_ClosesBackends(t *testing.T) {
	t.Parallel()

	db := &fakeTxWithPing{}
	c := &fakeCH{closeErr: errors.New("close ch")}
	s := &Store{DB: db, CH: newCHAdapter(c)}
	err := s.Close(context.Background())
	if !db.closed || !c.closed {
		t.Fatalf("backends not closed db=%v ch=%v", db.closed, c.closed)
	}
	if err == nil || !strings.Contains(err.Error(), "close ch") {
		t.Fatalf("close error = %v", err)
	}
}

type fakeCH struct {
	pingErr  error
	closeErr error
	closed   bool

	table string
	rows  [][]any
	exec  []string
}

func (f *fakeCH) Exec(ctx context.Context, sql string, args ...any) error {
	f.exec = append(f.exec, sql)
	return nil
}
func (f *fakeCH) Insert(ctx context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return nil
}
func (f *fakeCH) Query(ctx context.Context, sql string, args ...any) (ch.Rows, error) {
	return nil, errors.New("no query")
}
func (f *fakeCH) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeCH) Close() error                   { f.closed = true; return f.closeErr }

func TestCHAdapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := &fakeCH{}
	a := newCHAdapter(f)

	if err := a.Exec(ctx, "OPTIMIZE TABLE ping_log"); err != nil || len(f.exec) != 1 {
		t.Fatalf("Exec = %v (%v)", err, f.exec)
	}
	if err := a.Insert(ctx, "ping_log", [][]any{{int64(1), "work"}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if f.table != "ping_log" || len(f.rows) != 1 {
		t.Fatalf("insert not forwarded: %q %v", f.table, f.rows)
	}
	if err := a.Insert(ctx, "ping_log", []int{1}); err == nil {
		t.Fatalf("unsupported shape should fail")
	}
	if err := a.Insert(ctx, "ping_log", []any{int64(2), "eat"}); err != nil || len(f.rows) != 1 || f.rows[0][1] != "eat" {
		t.Fatalf("single row insert = %v %v", err, f.rows)
	}
	if _, err := a.Query(ctx, "SELECT 1"); err == nil {
		t.Fatalf("query error should bubble up")
	}

	var nilAdapter *clickhouseAdapter
	if err := nilAdapter.Ping(ctx); err == nil {
		t.Fatalf("nil adapter ping should fail")
	}
}

type recTracer struct{ sqls []string }

func (r *recTracer) OnQuery(_ context.Context, ev trace.QueryEvent) {
	r.sqls = append(r.sqls, ev.Backend+": "+ev.SQL)
}

func TestOpen_WithTracer(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}, WithTracer(nil)); err == nil {
		t.Fatalf("nil tracer should be rejected")
	}

	rec := &recTracer{}
	s, err := Open(context.Background(), Config{
		Driver: DialectSQLite,
		SQLite: SQLiteConfig{Path: MemoryPath},
	}, WithTracer(rec))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(context.Background())

	if _, err := s.DB.Exec(context.Background(), `CREATE TABLE t (seed BIGINT)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(rec.sqls) == 0 || !strings.HasPrefix(rec.sqls[len(rec.sqls)-1], "sqlite: CREATE TABLE") {
		t.Fatalf("traced = %v", rec.sqls)
	}
}
