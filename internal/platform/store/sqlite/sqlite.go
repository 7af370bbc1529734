// Package sqlite provides a local SQLite client over database/sql using the
// ncruces wasm driver, so the binary stays cgo free
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tagtime/internal/platform/store/trace"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Memory opens a private in-memory database (handy for tests and previews)
const Memory = ":memory:"

// Config configures the sqlite client
type Config struct {
	Path        string
	BusyTimeout time.Duration // default 5s
	SlowMs      int
}

// DB is a sqlite handle with optional tracer
type DB struct {
	SQL    *sql.DB
	Tracer trace.QueryTracer
	SlowMs int
}

var sqlOpen = sql.Open

// DSN builds the driver DSN for cfg
func DSN(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	params := []string{
		"_pragma=busy_timeout(" + fmt.Sprint(busy.Milliseconds()) + ")",
		"_pragma=foreign_keys(ON)",
		"_txlock=immediate",
	}
	if cfg.Path == Memory {
		return "file::memory:?" + strings.Join(params, "&")
	}
	params = append(params, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	return "file:" + cfg.Path + "?" + strings.Join(params, "&")
}

// Open opens (or creates) the database at cfg.Path and checks it answers
func Open(ctx context.Context, cfg Config, tracer trace.QueryTracer) (*DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: empty path")
	}
	if cfg.Path != Memory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sqlOpen("sqlite3", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; also keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &DB{SQL: db, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Close closes the database
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}

// Rebind rewrites postgres style $N placeholders to sqlite ?N so repos can
// share one SQL text across both backends. Quoted literals are left alone
func Rebind(q string) string {
	if !strings.Contains(q, "$") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q))
	inStr := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		if c == '\'' {
			inStr = !inStr
		}
		if c == '$' && !inStr && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
