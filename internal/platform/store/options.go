package store

import (
	"errors"

	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store/trace"
)

// Option adjusts a Store before its backends open
type Option func(*Store) error

// WithLogger routes backend warnings and SQL traces through log
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithTracer sends every sql statement to t, whatever the LOG_SQL knobs say
func WithTracer(t trace.QueryTracer) Option {
	return func(s *Store) error {
		if t == nil {
			return errors.New("store: nil tracer")
		}
		s.tracer = t
		return nil
	}
}

// tracerFor picks the explicit tracer, else a logging one when logSQL is set
func (s *Store) tracerFor(backend string, logSQL bool) trace.QueryTracer {
	switch {
	case s.tracer != nil:
		return s.tracer
	case logSQL:
		return trace.Tracer(s.Log, backend)
	default:
		return nil
	}
}
