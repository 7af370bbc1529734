// Package service implements the ping log on top of a TxRunner
package service

import (
	"context"
	"time"

	"tagtime/internal/core/schedule"
	"tagtime/internal/core/tags"
	"tagtime/internal/modkit/repokit"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	"tagtime/internal/services/pings/domain"
)

// Service wires TxRunner + Binder into the ping log operations
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Sched  *schedule.Schedule

	// Now is the wall clock; tests pin it
	Now func() time.Time
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the ping log service
func New(db repokit.TxRunner, binder repokit.Binder[domain.StorageRepo], sched *schedule.Schedule) *Service {
	if db == nil {
		panic("pings.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("pings.Service requires a non nil Repo binder")
	}
	if sched == nil {
		panic("pings.Service requires a schedule")
	}
	return &Service{DB: db, Binder: binder, Sched: sched, Now: time.Now}
}

func (s *Service) now() time.Time { return s.Now().UTC().Truncate(time.Microsecond) }

func (s *Service) tx(ctx context.Context, op string, fn func(r domain.StorageRepo) error) error {
	err := repokit.InTx(ctx, s.DB, s.Binder, fn)
	return perr.FromStorage(err, op)
}

func (s *Service) read() domain.StorageRepo { return s.Binder.Bind(s.DB) }

// Insert adds p idempotently
func (s *Service) Insert(ctx context.Context, p domain.Ping) error {
	return s.tx(ctx, "insert ping", func(r domain.StorageRepo) error { return insertOne(ctx, r, p) })
}

// InsertBatch inserts every ping of ps in one transaction
func (s *Service) InsertBatch(ctx context.Context, ps []domain.Ping) error {
	if len(ps) == 0 {
		return nil
	}
	return s.tx(ctx, "insert pings", func(r domain.StorageRepo) error {
		for _, p := range ps {
			if err := insertOne(ctx, r, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertOne(ctx context.Context, r domain.StorageRepo, p domain.Ping) error {
	if p.Seed == 0 {
		return perr.InvalidArgf("ping seed must be non-zero")
	}
	inserted, err := r.InsertIfAbsent(ctx, p)
	if err != nil || inserted {
		return err
	}
	stored, ok, err := r.TimeOf(ctx, p.Seed)
	if err != nil {
		return err
	}
	if !ok {
		return perr.Consistencyf("ping %d conflicted on insert but is not stored", p.Seed)
	}
	if !stored.Equal(p.Time) {
		return perr.Consistencyf("ping %d stored at %s but scheduled at %s",
			p.Seed, stored.Format(time.RFC3339Nano), p.Time.UTC().Format(time.RFC3339Nano))
	}
	return nil
}

// RecordAnswer marks seed answered with the canonical set of raw
func (s *Service) RecordAnswer(ctx context.Context, seed uint64, raw []string) error {
	set := tags.CanonicalSet(raw)
	at := s.now()
	err := s.tx(ctx, "record answer", func(r domain.StorageRepo) error {
		changed, err := r.MarkAnswered(ctx, seed, at)
		if err != nil {
			return err
		}
		if !changed {
			if _, ok, err := r.TimeOf(ctx, seed); err != nil {
				return err
			} else if !ok {
				return perr.NotFoundf("ping %d not found", seed)
			}
			return perr.AlreadyAnsweredf("ping %d already answered", seed)
		}
		return r.AttachTags(ctx, seed, set, at)
	})
	if err == nil {
		logger.C(ctx).Info().Uint64("seed", seed).Strs("tags", set).Msg("pings: answer recorded")
	}
	return err
}

// LastPing returns the newest ping, inserting the first ping of the
// schedule when the log is empty
func (s *Service) LastPing(ctx context.Context) (domain.Ping, error) {
	var out domain.Ping
	err := s.tx(ctx, "last ping", func(r domain.StorageRepo) error {
		p, ok, err := r.Latest(ctx)
		if err != nil {
			return err
		}
		if ok {
			out = p
			return nil
		}
		first := domain.FromPoint(s.Sched.First(), s.now())
		if err := insertOne(ctx, r, first); err != nil {
			return err
		}
		logger.C(ctx).Info().Uint64("seed", first.Seed).Time("time", first.Time).Msg("pings: bootstrapped first ping")
		out = first
		return nil
	})
	if err != nil {
		return domain.Ping{}, err
	}
	return s.withTags(ctx, out)
}

// LastPingBefore returns the newest ping strictly before t
func (s *Service) LastPingBefore(ctx context.Context, t time.Time) (domain.Ping, error) {
	p, err := s.read().LatestBefore(ctx, t)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Ping{}, perr.NotFoundf("no ping before %s", t.UTC().Format(time.RFC3339))
	}
	if err != nil {
		return domain.Ping{}, perr.FromStorage(err, "last ping before")
	}
	return s.withTags(ctx, p)
}

// IsAnswered reports whether seed has been answered
func (s *Service) IsAnswered(ctx context.Context, seed uint64) (bool, error) {
	p, err := s.get(ctx, seed)
	if err != nil {
		return false, err
	}
	return p.Answered, nil
}

// Get returns one ping with its tags
func (s *Service) Get(ctx context.Context, seed uint64) (domain.Ping, error) {
	p, err := s.get(ctx, seed)
	if err != nil {
		return domain.Ping{}, err
	}
	return s.withTags(ctx, p)
}

func (s *Service) get(ctx context.Context, seed uint64) (domain.Ping, error) {
	p, err := s.read().Get(ctx, seed)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Ping{}, perr.NotFoundf("ping %d not found", seed)
	}
	return p, perr.FromStorage(err, "get ping")
}

// Range returns pings in [since, until) with their tags, oldest first
func (s *Service) Range(ctx context.Context, since, until time.Time, limit int) ([]domain.Ping, error) {
	if until.Before(since) {
		return nil, perr.InvalidArgf("range end %s is before start %s", until.Format(time.RFC3339), since.Format(time.RFC3339))
	}
	ps, err := s.read().Range(ctx, since, until, limit)
	if err != nil {
		return nil, perr.FromStorage(err, "range pings")
	}
	return s.withTagsAll(ctx, ps)
}

// Unanswered returns unanswered pings before t, newest first
func (s *Service) Unanswered(ctx context.Context, before time.Time, limit int) ([]domain.Ping, error) {
	ps, err := s.read().Unanswered(ctx, before, limit)
	if err != nil {
		return nil, perr.FromStorage(err, "unanswered pings")
	}
	return s.withTagsAll(ctx, ps)
}

// Tags returns the tag vocabulary
func (s *Service) Tags(ctx context.Context) ([]domain.TagUse, error) {
	v, err := s.read().Vocabulary(ctx)
	return v, perr.FromStorage(err, "tag vocabulary")
}

func (s *Service) withTags(ctx context.Context, p domain.Ping) (domain.Ping, error) {
	ps, err := s.withTagsAll(ctx, []domain.Ping{p})
	if err != nil {
		return domain.Ping{}, err
	}
	return ps[0], nil
}

func (s *Service) withTagsAll(ctx context.Context, ps []domain.Ping) ([]domain.Ping, error) {
	seeds := make([]uint64, 0, len(ps))
	for _, p := range ps {
		if p.Answered {
			seeds = append(seeds, p.Seed)
		}
	}
	byseed := map[uint64][]string{}
	if len(seeds) > 0 {
		var err error
		if byseed, err = s.read().TagsOf(ctx, seeds); err != nil {
			return nil, perr.FromStorage(err, "ping tags")
		}
	}
	for i := range ps {
		ps[i].Tags = byseed[ps[i].Seed]
		if ps[i].Tags == nil {
			ps[i].Tags = []string{}
		}
	}
	return ps, nil
}
