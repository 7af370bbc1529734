package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "tagtime/internal/platform/errors"
	pdom "tagtime/internal/services/pings/domain"
)

// rangeStore serves Range from a sorted slice
type rangeStore struct {
	pdom.Store
	pings []pdom.Ping
	reads int
	err   error
}

func (r *rangeStore) Range(_ context.Context, since, until time.Time, limit int) ([]pdom.Ping, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	var out []pdom.Ping
	for _, p := range r.pings {
		if p.Time.Before(since) || !p.Time.Before(until) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeMirror struct {
	ensured int
	ensureE error
	batches [][]pdom.Ping
	at      time.Time
	upsertE error
}

func (f *fakeMirror) EnsureSchema(context.Context) error { f.ensured++; return f.ensureE }

func (f *fakeMirror) Upsert(_ context.Context, ps []pdom.Ping, at time.Time) error {
	if f.upsertE != nil {
		return f.upsertE
	}
	f.batches = append(f.batches, ps)
	f.at = at
	return nil
}

var base = time.Unix(1335000000, 0).UTC()

func fivePings() []pdom.Ping {
	ps := make([]pdom.Ping, 5)
	for i := range ps {
		ps[i] = pdom.Ping{Seed: uint64(i + 1), Time: base.Add(time.Duration(i) * time.Hour), Tags: []string{}}
	}
	ps[1].Answered, ps[1].Tags = true, []string{"deep_work", "email"}
	return ps
}

func TestLine(t *testing.T) {
	t.Parallel()

	p := pdom.Ping{Seed: 1, Time: base, Tags: []string{"deep_work", "email"}}
	if got, want := Line(p, time.UTC), "1335000000 deep_work email [2012.04.21 09:20:00 Sat]"; got != want {
		t.Fatalf("Line = %q, want %q", got, want)
	}
	p.Tags = nil
	if got, want := Line(p, time.FixedZone("X", -10*3600)), "1335000000 [2012.04.20 23:20:00 Fri]"; got != want {
		t.Fatalf("untagged Line = %q, want %q", got, want)
	}
}

func TestWriteLog_PagesThroughRange(t *testing.T) {
	t.Parallel()

	st := &rangeStore{pings: fivePings()}
	s := New(st, nil, Config{Location: time.UTC, PageSize: 2})

	var buf bytes.Buffer
	n, err := s.WriteLog(context.Background(), &buf, time.Time{}, base.Add(24*time.Hour))
	if err != nil || n != 5 {
		t.Fatalf("WriteLog = %d, %v", n, err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 5 || lines[1] != "1335003600 deep_work email [2012.04.21 10:20:00 Sat]" {
		t.Fatalf("lines = %q", lines)
	}
	// 2 + 2 + 1
	if st.reads != 3 {
		t.Fatalf("reads = %d", st.reads)
	}

	buf.Reset()
	if n, _ := s.WriteLog(context.Background(), &buf, base.Add(time.Hour), base.Add(3*time.Hour)); n != 2 {
		t.Fatalf("window wrote %d", n)
	}
}

func TestWriteLog_StoreError(t *testing.T) {
	t.Parallel()

	st := &rangeStore{err: perr.Unavailablef("down")}
	if _, err := New(st, nil, Config{}).WriteLog(context.Background(), &bytes.Buffer{}, time.Time{}, base); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestExportRange(t *testing.T) {
	t.Parallel()

	st := &rangeStore{pings: fivePings()}
	if _, err := New(st, nil, Config{}).ExportRange(context.Background(), time.Time{}, base); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("no sink: %v", err)
	}

	m := &fakeMirror{}
	s := New(st, m, Config{PageSize: 3})
	s.Now = func() time.Time { return base.Add(48 * time.Hour) }
	for range 2 {
		n, err := s.ExportRange(context.Background(), time.Time{}, base.Add(24*time.Hour))
		if err != nil || n != 5 {
			t.Fatalf("ExportRange = %d, %v", n, err)
		}
	}
	if m.ensured != 1 || len(m.batches) != 4 || !m.at.Equal(base.Add(48*time.Hour)) {
		t.Fatalf("mirror ensured=%d batches=%d at=%s", m.ensured, len(m.batches), m.at)
	}
}

func TestExportRange_MirrorFailures(t *testing.T) {
	t.Parallel()

	st := &rangeStore{pings: fivePings()}
	m := &fakeMirror{ensureE: errors.New("no route to host")}
	s := New(st, m, Config{})
	if _, err := s.ExportRange(context.Background(), time.Time{}, base.Add(time.Hour)); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("ensure failure: %v", err)
	}
	m.ensureE, m.upsertE = nil, errors.New("too many parts")
	if _, err := s.ExportRange(context.Background(), time.Time{}, base.Add(time.Hour)); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("upsert failure: %v", err)
	}
	if m.ensured != 2 {
		t.Fatalf("schema should be retried after a failure, ensured=%d", m.ensured)
	}
}
