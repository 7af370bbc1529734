// Package trace carries query events from the sql backends to the logger
package trace

import (
	"context"
	"strings"
	"time"

	"tagtime/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent is one statement as seen by a backend adapter
type QueryEvent struct {
	Backend   string
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement through root at info, slow ones at warn,
// whatever the root level. backend names the component
func Tracer(root logger.Logger, backend string) QueryTracer {
	return logTracer{
		log: root.Level(zerolog.DebugLevel).With().Str("component", backend).Logger(),
		msg: backend + " query",
	}
}

type logTracer struct {
	log logger.Logger
	msg string
}

func (l logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	lvl := zerolog.InfoLevel
	if ev.Slow {
		lvl = zerolog.WarnLevel
	}
	l.log.WithLevel(lvl).
		Float64("elapsed_ms", float64(ev.ElapsedUS)/1e3).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg(l.msg)
}

// Emit times a statement that started at start and hands it to t.
// A nil tracer is a no-op; slowMs < 0 disables the slow flag
func Emit(ctx context.Context, t QueryTracer, backend string, slowMs int, sql string, args []any, start time.Time, err error) {
	if t == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	t.OnQuery(ctx, QueryEvent{
		Backend:   backend,
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      slowMs >= 0 && elapsedUS >= int64(slowMs)*1000,
	})
}

// compact folds the whitespace of multi line SQL into single spaces
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }
