package service

import (
	"context"
	"slices"
	"time"

	"tagtime/internal/core/schedule"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	"tagtime/internal/services/pings/domain"
)

// verifyHorizonMeans bounds the chain walk to now plus this many mean gaps
const verifyHorizonMeans = 64

// Verify walks the chain from the epoch through the stored frontier and
// compares it with the log
func (s *Service) Verify(ctx context.Context) (domain.VerifyReport, error) {
	var rep domain.VerifyReport

	last, ok, err := s.read().Latest(ctx)
	if err != nil {
		return rep, perr.FromStorage(err, "verify: frontier")
	}
	if !ok {
		return rep, nil
	}
	rep.Frontier = last.Time

	stored, err := s.read().Range(ctx, time.Time{}, last.Time.Add(time.Microsecond), 0)
	if err != nil {
		return rep, perr.FromStorage(err, "verify: load log")
	}
	rep.Checked = len(stored)

	// a stored frontier far past now is corrupt; stop the walk at the horizon
	// and let whatever lies beyond it show up as unscheduled
	limit := last.Time
	if horizon := s.now().Add(verifyHorizonMeans * s.Sched.Clock().Mean()); limit.After(horizon) {
		logger.C(ctx).Warn().Time("frontier", last.Time).Time("horizon", horizon).Msg("pings: verify frontier beyond horizon")
		limit = horizon
	}

	chain := map[uint64]schedule.Point{}
	for _, pt := range s.Sched.Chain(limit) {
		chain[pt.Seed] = pt
	}

	for _, p := range stored {
		pt, ok := chain[p.Seed]
		if !ok {
			rep.Unscheduled = append(rep.Unscheduled, p.Seed)
			continue
		}
		delete(chain, p.Seed)
		if !pt.Time.Equal(p.Time) {
			rep.Divergent = append(rep.Divergent, domain.Divergence{Seed: p.Seed, Stored: p.Time, Chain: pt.Time})
		}
	}
	for _, pt := range chain {
		if !pt.Time.After(limit) {
			rep.Missing = append(rep.Missing, pt)
		}
	}
	slices.SortFunc(rep.Missing, func(a, b schedule.Point) int { return a.Time.Compare(b.Time) })

	logger.C(ctx).Info().
		Int("checked", rep.Checked).
		Int("missing", len(rep.Missing)).
		Int("unscheduled", len(rep.Unscheduled)).
		Int("divergent", len(rep.Divergent)).
		Msg("pings: verify done")
	return rep, nil
}

// Repair inserts the chain pings missing below the frontier. A log with
// divergent times is left alone
func (s *Service) Repair(ctx context.Context) (int, error) {
	rep, err := s.Verify(ctx)
	if err != nil {
		return 0, err
	}
	if len(rep.Divergent) > 0 {
		d := rep.Divergent[0]
		return 0, perr.Consistencyf("ping %d stored at %s but the chain says %s (%d divergent)",
			d.Seed, d.Stored.Format(time.RFC3339Nano), d.Chain.Format(time.RFC3339Nano), len(rep.Divergent))
	}
	if len(rep.Missing) == 0 {
		return 0, nil
	}
	if err := s.InsertBatch(ctx, domain.FromPoints(rep.Missing, s.now())); err != nil {
		return 0, err
	}
	return len(rep.Missing), nil
}
