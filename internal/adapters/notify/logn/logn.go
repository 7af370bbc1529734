// Package logn reports due pings to the process log
package logn

import (
	"context"

	"tagtime/internal/platform/logger"
	"tagtime/internal/services/prompter/domain"
)

// Notifier writes one structured line per due ping
type Notifier struct {
	Log *logger.Logger
}

// New returns a Notifier; nil uses the context logger
func New(l *logger.Logger) *Notifier { return &Notifier{Log: l} }

// Notify logs d at info
func (n *Notifier) Notify(ctx context.Context, d domain.Due) error {
	l := n.Log
	if l == nil {
		l = logger.C(ctx)
	}
	l.Info().
		Str("component", "notify").
		Uint64("seed", d.Seed).
		Time("ping", d.Time).
		Msg("ping! what are you doing right now?")
	return nil
}
