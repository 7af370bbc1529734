// Package pg opens the shared postgres ping log over a pgxpool
package pg

import (
	"context"
	"strconv"
	"time"

	"tagtime/internal/platform/store/trace"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the pool setup; zero fields keep the pgx defaults
type Config struct {
	URL      string
	AppName  string
	MaxConns int32
	SlowMs   int

	// StatementTimeout caps each statement server side
	StatementTimeout time.Duration
}

// PG holds the pool plus the trace settings the store adapter reads
type PG struct {
	Pool   *pgxpool.Pool
	Tracer trace.QueryTracer
	SlowMs int
}

// Option tweaks Open
type Option func(*PG, *pgxpool.Config)

// WithTracer reports every statement to t
func WithTracer(t trace.QueryTracer) Option {
	return func(p *PG, _ *pgxpool.Config) { p.Tracer = t }
}

// WithPoolConfig edits the parsed pool config before the pool starts
func WithPoolConfig(fn func(*pgxpool.Config)) Option {
	return func(_ *PG, pc *pgxpool.Config) { fn(pc) }
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and starts the pool. It does not wait for the server
func Open(ctx context.Context, cfg Config, opts ...Option) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	params := pc.ConnConfig.RuntimeParams
	if params == nil {
		params = map[string]string{}
		pc.ConnConfig.RuntimeParams = params
	}
	if cfg.AppName != "" {
		params["application_name"] = cfg.AppName
	}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	p := &PG{SlowMs: cfg.SlowMs}
	for _, o := range opts {
		o(p, pc)
	}
	if p.Pool, err = newPool(ctx, pc); err != nil {
		return nil, err
	}
	return p, nil
}

// Ping checks one pooled connection without going through the tracer
func (p *PG) Ping(ctx context.Context) error { return p.Pool.Ping(ctx) }

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}
