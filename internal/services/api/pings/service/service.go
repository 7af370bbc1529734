// Package service contains the pings api workflows
package service

import (
	"context"
	"io"
	"strconv"
	"time"

	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	tim "tagtime/internal/platform/time"
	"tagtime/internal/services/api/pings/domain"
	ledom "tagtime/internal/services/logexport/domain"
	pdom "tagtime/internal/services/pings/domain"
)

// Service defines the service contract for the pings api
type Service interface{ domain.ServicePort }

// Svc implements Service over the pings module ports
type Svc struct {
	Store    pdom.Store
	Auditor  pdom.Auditor
	Exporter ledom.Exporter

	// Location reads zone-less times in requests
	Location *time.Location
	Now      func() time.Time
}

// New creates the pings api service
func New(store pdom.Store, auditor pdom.Auditor, exporter ledom.Exporter) *Svc {
	if store == nil {
		panic("pings api requires a non nil ping store")
	}
	return &Svc{Store: store, Auditor: auditor, Exporter: exporter, Location: time.UTC, Now: time.Now}
}

func (s *Svc) window(since, until string) (time.Time, time.Time, error) {
	a, err := tim.ParseInstant(since, s.Location)
	if err != nil {
		return a, a, perr.WithField(perr.InvalidArgf("since: %v", err), "since")
	}
	b := s.Now()
	if until != "" {
		if b, err = tim.ParseInstant(until, s.Location); err != nil {
			return a, b, perr.WithField(perr.InvalidArgf("until: %v", err), "until")
		}
	}
	return a, b, nil
}

func parseSeed(raw string) (uint64, error) {
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || seed == 0 {
		return 0, perr.WithField(perr.InvalidArgf("seed must be a positive 64-bit integer"), "seed")
	}
	return seed, nil
}

// Range lists pings in a window, oldest first
func (s *Svc) Range(ctx context.Context, in domain.RangeInput) ([]pdom.Ping, error) {
	since, until, err := s.window(in.Since, in.Until)
	if err != nil {
		return nil, err
	}
	return s.Store.Range(ctx, since, until, in.Limit)
}

// Unanswered lists pings still waiting for tags, newest first
func (s *Svc) Unanswered(ctx context.Context, in domain.UnansweredInput) ([]pdom.Ping, error) {
	before := s.Now()
	if in.Before != "" {
		t, err := tim.ParseInstant(in.Before, s.Location)
		if err != nil {
			return nil, perr.WithField(perr.InvalidArgf("before: %v", err), "before")
		}
		before = t
	}
	limit := in.Limit
	if limit == 0 {
		limit = 50
	}
	return s.Store.Unanswered(ctx, before, limit)
}

// Get returns one ping with its tags
func (s *Svc) Get(ctx context.Context, in domain.SeedInput) (pdom.Ping, error) {
	seed, err := parseSeed(in.Seed)
	if err != nil {
		return pdom.Ping{}, err
	}
	return s.Store.Get(ctx, seed)
}

// Last returns the stored frontier
func (s *Svc) Last(ctx context.Context) (pdom.Ping, error) { return s.Store.LastPing(ctx) }

// Answer records tags for a ping; a skip only checks the ping exists
func (s *Svc) Answer(ctx context.Context, in domain.AnswerInput) (domain.AnswerOutput, error) {
	seed, err := parseSeed(in.Seed)
	if err != nil {
		return domain.AnswerOutput{}, err
	}
	out := domain.AnswerOutput{Seed: in.Seed, Tags: []string{}}
	if in.Skip {
		if _, err := s.Store.IsAnswered(ctx, seed); err != nil {
			return out, err
		}
		return out, nil
	}
	if err := s.Store.RecordAnswer(ctx, seed, in.Tags); err != nil {
		return out, err
	}
	p, err := s.Store.Get(ctx, seed)
	if err != nil {
		return out, err
	}
	logger.C(ctx).Info().Str("mod", "api.pings").Uint64("seed", seed).Strs("tags", p.Tags).Msg("answer recorded")
	out.Recorded, out.Tags = true, p.Tags
	return out, nil
}

// Tags returns the tag vocabulary
func (s *Svc) Tags(ctx context.Context) ([]pdom.TagUse, error) { return s.Store.Tags(ctx) }

// Verify compares the stored log with the schedule
func (s *Svc) Verify(ctx context.Context) (pdom.VerifyReport, error) {
	if s.Auditor == nil {
		return pdom.VerifyReport{}, perr.Configf("verify is not available")
	}
	return s.Auditor.Verify(ctx)
}

// Repair restores missing chain pings
func (s *Svc) Repair(ctx context.Context) (domain.RepairOutput, error) {
	if s.Auditor == nil {
		return domain.RepairOutput{}, perr.Configf("repair is not available")
	}
	n, err := s.Auditor.Repair(ctx)
	return domain.RepairOutput{Inserted: n}, err
}

// WriteLog streams the classic log for a window
func (s *Svc) WriteLog(ctx context.Context, w io.Writer, in domain.RangeInput) error {
	if s.Exporter == nil {
		return perr.Configf("log export is not available")
	}
	since, until, err := s.window(in.Since, in.Until)
	if err != nil {
		return err
	}
	_, err = s.Exporter.WriteLog(ctx, w, since, until)
	return err
}
