// Package service renders and mirrors the ping log
package service

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"tagtime/internal/core/pingclock"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	ledom "tagtime/internal/services/logexport/domain"
	pdom "tagtime/internal/services/pings/domain"
)

// stampLayout is the bracketed human time of a classic log line
const stampLayout = "2006.01.02 15:04:05 Mon"

// Config controls paging and the zone of the human stamp
type Config struct {
	// Location renders the bracketed stamp; nil is time.Local
	Location *time.Location

	// PageSize bounds each Range read (default 1000)
	PageSize int
}

// Service exports the stored log
type Service struct {
	Store  pdom.Store
	Mirror ledom.MirrorRepo
	Cfg    Config
	Now    func() time.Time

	schemaMu sync.Mutex
	schemaOK bool
}

var _ ledom.Exporter = (*Service)(nil)

// New constructs the exporter; mirror may be nil when no sink is configured
func New(store pdom.Store, mirror ledom.MirrorRepo, cfg Config) *Service {
	if store == nil {
		panic("logexport.Service requires a non nil ping store")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	return &Service{Store: store, Mirror: mirror, Cfg: cfg, Now: time.Now}
}

// Line renders p as `<unix> tag tag [YYYY.MM.DD HH:MM:SS Day]`
// unanswered pings have no tags
func Line(p pdom.Ping, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(strconv.FormatInt(p.Time.Unix(), 10))
	for _, t := range p.Tags {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	b.WriteString(" [")
	b.WriteString(p.Time.In(loc).Format(stampLayout))
	b.WriteByte(']')
	return b.String()
}

// WriteLog writes every ping in [since, until) oldest first
func (s *Service) WriteLog(ctx context.Context, w io.Writer, since, until time.Time) (int, error) {
	bw := bufio.NewWriter(w)
	n, err := s.pages(ctx, since, until, func(ps []pdom.Ping) error {
		for _, p := range ps {
			if _, err := bw.WriteString(Line(p, s.Cfg.Location) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}

// ExportRange mirrors pings in [since, until) into the analytics sink
// re-exporting a range is safe: the sink keeps the newest row per seed
func (s *Service) ExportRange(ctx context.Context, since, until time.Time) (int, error) {
	if s.Mirror == nil {
		return 0, perr.Configf("logexport: no analytics sink configured")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "logexport: prepare mirror")
	}

	at := s.Now()
	n, err := s.pages(ctx, since, until, func(ps []pdom.Ping) error {
		if err := s.Mirror.Upsert(ctx, ps, at); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "logexport: mirror %d pings", len(ps))
		}
		return nil
	})
	logger.C(ctx).Info().
		Str("mod", "logexport").
		Time("since", since).
		Time("until", until).
		Int("pings", n).
		Err(err).
		Msg("logexport: mirror range")
	return n, err
}

func (s *Service) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaOK {
		return nil
	}
	if err := s.Mirror.EnsureSchema(ctx); err != nil {
		return err
	}
	s.schemaOK = true
	return nil
}

// pages walks Range in PageSize chunks so large logs stream
func (s *Service) pages(ctx context.Context, since, until time.Time, fn func([]pdom.Ping) error) (int, error) {
	total := 0
	for {
		ps, err := s.Store.Range(ctx, since, until, s.Cfg.PageSize)
		if err != nil {
			return total, err
		}
		if len(ps) == 0 {
			return total, nil
		}
		if err := fn(ps); err != nil {
			return total, err
		}
		total += len(ps)
		if len(ps) < s.Cfg.PageSize {
			return total, nil
		}
		since = ps[len(ps)-1].Time.Add(pingclock.Resolution)
	}
}
