// Package guardrails provides the cross-process wake lease for the prompter
package guardrails

import (
	"context"
	"fmt"
	"time"

	"tagtime/internal/modkit/repokit"
	perr "tagtime/internal/platform/errors"

	"github.com/google/uuid"
)

// ErrLeaseHeld signals another prompter is extending the log right now
var ErrLeaseHeld = fmt.Errorf("prompter: wake lease already held")

// LeaseFunc runs do while holding the wake lease
type LeaseFunc func(ctx context.Context, do func(context.Context) error) error

// MakeWakeLease claims the single wake_lease row (auto-reclaim via expires_us)
// the row is released after do returns so the next device does not wait ttl
func MakeWakeLease(db repokit.TxRunner, owner string, ttl time.Duration, now func() time.Time) LeaseFunc {
	owner = fmt.Sprintf("%s:%s", owner, uuid.NewString())

	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}

	return func(ctx context.Context, do func(context.Context) error) error {
		t := now()
		var claimed bool
		if err := db.Tx(ctx, func(q repokit.Queryer) error {
			tag, err := q.Exec(ctx, `
				INSERT INTO wake_lease (id, owner, expires_us)
				VALUES (1, $1, $2)
				ON CONFLICT (id) DO UPDATE
				   SET owner = excluded.owner, expires_us = excluded.expires_us
				 WHERE wake_lease.expires_us <= $3 OR wake_lease.owner = $1
			`, owner, t.Add(ttl).UnixMicro(), t.UnixMicro())
			if err != nil {
				return err
			}
			claimed = tag.RowsAffected() == 1
			return nil
		}); err != nil {
			return perr.FromStorage(err, "prompter: claim wake lease")
		}
		if !claimed {
			return ErrLeaseHeld
		}

		defer func() {
			// detached so a cancelled wake still frees the row
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = db.Tx(rctx, func(q repokit.Queryer) error {
				_, err := q.Exec(rctx, `UPDATE wake_lease SET expires_us = 0 WHERE id = 1 AND owner = $1`, owner)
				return err
			})
		}()
		return do(ctx)
	}
}
