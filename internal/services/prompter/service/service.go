// Package service provides the prompter wake cycle
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"tagtime/internal/core/pingclock"
	"tagtime/internal/core/schedule"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	pdom "tagtime/internal/services/pings/domain"
	"tagtime/internal/services/prompter/domain"
	"tagtime/internal/services/prompter/guardrails"
)

// Config controls retry and alarm behavior
type Config struct {
	// MaxRetries bounds attempts per wake on transient store failures
	MaxRetries int

	// RetryBase is the first backoff step; doubles per attempt, capped at 30s
	RetryBase time.Duration

	// RetryIdle is how long Run waits after a wake exhausted its retries
	RetryIdle time.Duration

	// MaxSleep caps a single alarm so clock jumps are noticed
	MaxSleep time.Duration

	// EnableLeases guards extension with the shared wake lease
	EnableLeases bool
}

// Service runs wake cycles against an explicitly owned ping store
type Service struct {
	Store  pdom.Store
	Sched  *schedule.Schedule
	Notify domain.Notifier
	Cfg    Config

	// Lease(ctx, do) should hold the cross-process wake lease while do runs
	Lease guardrails.LeaseFunc

	Now func() time.Time

	mu      sync.Mutex
	trigger chan struct{}
}

var _ domain.PrompterPort = (*Service)(nil)

// New constructs the prompter
func New(
	store pdom.Store,
	sched *schedule.Schedule,
	notify domain.Notifier,
	cfg Config,
	lease guardrails.LeaseFunc,
) *Service {
	if store == nil {
		panic("prompter.Service requires a non nil ping store")
	}
	if sched == nil {
		panic("prompter.Service requires a schedule")
	}
	if notify == nil {
		panic("prompter.Service requires a notifier")
	}
	return &Service{
		Store:   store,
		Sched:   sched,
		Notify:  notify,
		Cfg:     cfg,
		Lease:   lease,
		Now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// Wake runs one cycle: make sure a future ping exists, then notify the user
// about the newest due ping if it is still unanswered
func (s *Service) Wake(ctx context.Context) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC()
	l := logger.C(ctx).With().Str("mod", "prompter").Time("now", now).Logger()
	out := domain.Outcome{State: domain.StateExtending}

	extend := func(ctx context.Context) error {
		n, frontier, err := s.extend(ctx, now)
		out.Extended, out.Frontier = n, frontier
		return err
	}

	var err error
	if s.Lease != nil && s.Cfg.EnableLeases {
		err = s.Lease(ctx, extend)
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			err = s.frontierElsewhere(ctx, now, &out)
		}
	} else {
		err = extend(ctx)
	}
	if err != nil {
		return out, err
	}
	if out.Extended > 0 {
		l.Info().Int("extended", out.Extended).Time("frontier", out.Frontier).Msg("prompter: schedule extended")
	}

	out.State = domain.StateDeciding
	due, err := s.Store.LastPingBefore(ctx, now)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		out.State = domain.StateIdle
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if due.Answered {
		out.State = domain.StateIdle
		return out, nil
	}

	d := domain.Due{Seed: due.Seed, Time: due.Time}
	if err := s.Notify.Notify(ctx, d); err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, perr.Wrapf(err, perr.ErrorCodeUnavailable, "prompter: notify seed %d", d.Seed)
	}
	l.Info().Uint64("seed", d.Seed).Time("ping", d.Time).Msg("prompter: ping due")
	out.State = domain.StateNotifyUser
	out.Due = &d
	return out, nil
}

// frontierElsewhere reads the frontier another device is extending; until it
// has committed a ping after now the wake fails as unavailable and is retried
func (s *Service) frontierElsewhere(ctx context.Context, now time.Time, out *domain.Outcome) error {
	last, err := s.Store.LastPing(ctx)
	if err != nil {
		return err
	}
	if !last.Time.After(now) {
		return perr.Unavailablef("prompter: wake lease held elsewhere; frontier %s not past now", last.Time.Format(time.RFC3339))
	}
	logger.C(ctx).Debug().Str("mod", "prompter").Time("frontier", last.Time).Msg("prompter: wake lease held elsewhere; extension skipped")
	out.Frontier = last.Time
	return nil
}

// extend appends every ping through the first one after now
func (s *Service) extend(ctx context.Context, now time.Time) (int, time.Time, error) {
	last, err := s.Store.LastPing(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}
	if last.Time.After(now) {
		return 0, last.Time, nil
	}
	pts, err := s.Sched.ExtendThrough(last.Point(), now)
	if err != nil {
		return 0, time.Time{}, err
	}
	if err := s.Store.InsertBatch(ctx, pdom.FromPoints(pts, now)); err != nil {
		return 0, time.Time{}, err
	}
	return len(pts), pts[len(pts)-1].Time, nil
}

// Trigger requests a wake from Run; pending requests coalesce into one
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run wakes once immediately, then at every frontier and on Trigger, until
// ctx ends. A consistency violation stops the loop with that error
func (s *Service) Run(ctx context.Context) error {
	l := logger.C(ctx).With().Str("mod", "prompter").Logger()
	alarm := time.NewTimer(0)
	defer alarm.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-alarm.C:
		case <-s.trigger:
		}

		out, err := s.wakeWithRetry(ctx)
		var next time.Duration
		switch {
		case err == nil:
			next = s.untilAfter(out.Frontier)
		case perr.IsCode(err, perr.ErrorCodeConsistency):
			l.Error().Err(err).Msg("prompter: ping log is inconsistent; stopping")
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			next = s.Cfg.RetryIdle
			if next <= 0 {
				next = time.Minute
			}
			l.Error().Err(err).Dur("retry_in", next).Msg("prompter: wake failed")
		}
		l.Debug().Dur("sleep", next).Msg("prompter: alarm armed")
		alarm.Reset(next)
	}
}

// untilAfter is the sleep until just past t, capped by MaxSleep
// just past so the ping at t counts as due when the alarm fires
func (s *Service) untilAfter(t time.Time) time.Duration {
	d := max(t.Sub(s.Now())+pingclock.Resolution, 0)
	if s.Cfg.MaxSleep > 0 {
		d = min(d, s.Cfg.MaxSleep)
	}
	return d
}

func (s *Service) wakeWithRetry(ctx context.Context) (domain.Outcome, error) {
	attempts := max(s.Cfg.MaxRetries, 1)
	base := s.retryBase()

	var (
		out  domain.Outcome
		last error
	)
	for i := range attempts {
		o, err := s.Wake(ctx)
		if err == nil {
			return o, nil
		}
		out, last = o, err

		// Stop early on non-retryable errors
		if !perr.Retryable(err) && perr.CodeOf(err) != perr.ErrorCodeUnavailable {
			return out, last
		}
		if i == attempts-1 {
			break
		}

		// Exponential backoff with jitter, cap at 30s
		d := min(base<<i, 30*time.Second)
		j := d/2 + rand.N(d/2+1)
		logger.C(ctx).Warn().Err(err).Int("attempt", i+1).Dur("backoff", j).Msg("prompter: wake retry")
		if se := sleepCtx(ctx, j); se != nil {
			return out, se
		}
	}
	return out, last
}

// Answer records the user's tags for a ping; a skip leaves it unanswered
func (s *Service) Answer(ctx context.Context, a domain.Answer) error {
	if a.Seed == 0 {
		return perr.InvalidArgf("prompter: answer without a seed")
	}
	l := logger.C(ctx).With().Str("mod", "prompter").Uint64("seed", a.Seed).Logger()
	if a.Skip {
		l.Debug().Msg("prompter: ping skipped")
		return nil
	}
	if err := s.Store.RecordAnswer(ctx, a.Seed, a.Tags); err != nil {
		return err
	}
	l.Info().Strs("raw", a.Tags).Msg("prompter: answer recorded")
	return nil
}

// IsAnswered asks the store; unknown seeds are NotFound
func (s *Service) IsAnswered(ctx context.Context, seed uint64) (bool, error) {
	return s.Store.IsAnswered(ctx, seed)
}

func (s *Service) retryBase() time.Duration {
	if s.Cfg.RetryBase <= 0 {
		return 500 * time.Millisecond
	}
	return s.Cfg.RetryBase
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
