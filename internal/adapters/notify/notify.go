// Package notify holds the ping-due notifiers handed to the prompter
package notify

import (
	"context"
	"errors"

	"tagtime/internal/platform/logger"
	"tagtime/internal/services/prompter/domain"
)

// Fanout notifies every target. Failing targets are logged; the call fails
// only when no target took the ping, so a retried wake does not re-notify
// the targets that already succeeded
func Fanout(targets ...domain.Notifier) domain.Notifier {
	return domain.NotifierFunc(func(ctx context.Context, d domain.Due) error {
		var (
			errs []error
			sent int
		)
		for i, t := range targets {
			if t == nil {
				continue
			}
			if err := t.Notify(ctx, d); err != nil {
				logger.C(ctx).Warn().Err(err).Int("target", i).Uint64("seed", d.Seed).Msg("notify: target failed")
				errs = append(errs, err)
				continue
			}
			sent++
		}
		if sent > 0 {
			return nil
		}
		return errors.Join(errs...)
	})
}
