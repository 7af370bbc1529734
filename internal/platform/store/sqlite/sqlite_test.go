package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"tagtime/internal/platform/testkit"
)

func TestRebind(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"select 1", "select 1"},
		{"select * from pings where seed = $1", "select * from pings where seed = ?1"},
		{"values ($1, $2, $12)", "values (?1, ?2, ?12)"},
		{"select '$1' , $2", "select '$1' , ?2"},
		{"select $x", "select $x"},
		{"select 'it''s', $3", "select 'it''s', ?3"},
	}
	for _, c := range cases {
		if got := Rebind(c.in); got != c.want {
			t.Fatalf("Rebind(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	mem := DSN(Config{Path: Memory})
	if !strings.HasPrefix(mem, "file::memory:?") || strings.Contains(mem, "journal_mode") {
		t.Fatalf("memory dsn = %q", mem)
	}
	file := DSN(Config{Path: "/tmp/x.db"})
	for _, want := range []string{"file:/tmp/x.db?", "busy_timeout(5000)", "journal_mode(WAL)", "_txlock=immediate"} {
		if !strings.Contains(file, want) {
			t.Fatalf("file dsn %q missing %q", file, want)
		}
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}, nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpen_DriverError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &sqlOpen, func(string, string) (*sql.DB, error) { return nil, errors.New("boom") })

	if _, err := Open(context.Background(), Config{Path: Memory}, nil); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestOpen_FileRoundTrip(t *testing.T) {
	testkit.Serial(t)

	path := filepath.Join(t.TempDir(), "nested", "pings.db")
	db, err := Open(context.Background(), Config{Path: path}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if _, err := db.SQL.ExecContext(ctx, `CREATE TABLE t (id BIGINT PRIMARY KEY)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.SQL.ExecContext(ctx, Rebind(`INSERT INTO t (id) VALUES ($1)`), int64(-5)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got int64
	if err := db.SQL.QueryRowContext(ctx, `SELECT id FROM t`).Scan(&got); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != -5 {
		t.Fatalf("got %d", got)
	}
}
