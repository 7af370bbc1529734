// Package schedule turns the pingclock recurrence into a concrete schedule
// anchored at an epoch and an initial seed
package schedule

import (
	"time"

	"tagtime/internal/core/pingclock"
	perr "tagtime/internal/platform/errors"
)

// Point is re-exported so callers rarely need pingclock directly
type Point = pingclock.Point

// Config anchors a schedule
type Config struct {
	Epoch       time.Time
	InitialSeed uint64
	Clock       *pingclock.Clock
}

// Schedule is immutable after New and safe for concurrent use
type Schedule struct {
	epoch time.Time
	seed  uint64
	clock *pingclock.Clock
}

// New validates cfg and returns a Schedule
func New(cfg Config) (*Schedule, error) {
	if cfg.Clock == nil {
		return nil, perr.Configf("schedule: nil clock")
	}
	if cfg.InitialSeed == 0 {
		return nil, perr.Configf("schedule: initial seed must be non-zero")
	}
	if cfg.Epoch.IsZero() {
		return nil, perr.Configf("schedule: epoch is required")
	}
	return &Schedule{
		epoch: cfg.Epoch.UTC().Truncate(pingclock.Resolution),
		seed:  cfg.InitialSeed,
		clock: cfg.Clock,
	}, nil
}

// Epoch returns the instant of the first ping
func (s *Schedule) Epoch() time.Time { return s.epoch }

// InitialSeed returns the seed of the first ping
func (s *Schedule) InitialSeed() uint64 { return s.seed }

// Clock returns the underlying clock
func (s *Schedule) Clock() *pingclock.Clock { return s.clock }

// First returns the bootstrap point (InitialSeed, Epoch)
func (s *Schedule) First() Point { return Point{Seed: s.seed, Time: s.epoch} }

// Next returns the point after p
func (s *Schedule) Next(p Point) Point { return s.clock.Step(p) }

// ExtendThrough generates every point after last up to and including the
// first point strictly later than horizon. last itself is not returned.
// The result always holds at least one point, in time order
func (s *Schedule) ExtendThrough(last Point, horizon time.Time) ([]Point, error) {
	if last.Seed == 0 {
		return nil, perr.Configf("schedule: cannot extend from a zero seed")
	}
	if horizon.Before(last.Time) {
		return nil, perr.Configf("schedule: horizon %s is before last ping %s",
			horizon.UTC().Format(time.RFC3339Nano), last.Time.UTC().Format(time.RFC3339Nano))
	}

	var out []Point
	cur := last
	for {
		cur = s.clock.Step(cur)
		out = append(out, cur)
		if cur.Time.After(horizon) {
			return out, nil
		}
	}
}
