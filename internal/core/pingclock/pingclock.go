// Package pingclock is the pure arithmetic behind the ping sequence.
// A seed deterministically yields both the gap to the next ping and the
// seed that follows it, so any process holding (seed, time) can regenerate
// every later ping without coordination
package pingclock

import (
	"math"
	"time"

	perr "tagtime/internal/platform/errors"
)

// MaxMean bounds the mean gap so generated durations stay far from int64 overflow
const MaxMean = 365 * 24 * time.Hour

// Resolution is the storage resolution of ping instants
const Resolution = time.Microsecond

// two64 is 2^64 as a float64
const two64 = 18446744073709551616.0

// Config configures a Clock
type Config struct {
	// Mean is the mean gap between pings (45m is the TagTime default)
	Mean time.Duration

	// MinGap is an optional floor on every gap; zero means Resolution
	MinGap time.Duration
}

// Point is one element of the ping chain
type Point struct {
	Seed uint64
	Time time.Time
}

// Clock computes successive points; safe for concurrent use
type Clock struct {
	mean   time.Duration
	minGap time.Duration
}

// New validates cfg and returns a Clock
func New(cfg Config) (*Clock, error) {
	if cfg.Mean <= 0 {
		return nil, perr.Configf("pingclock: mean gap must be positive, got %s", cfg.Mean)
	}
	if cfg.Mean > MaxMean {
		return nil, perr.Configf("pingclock: mean gap %s exceeds %s", cfg.Mean, MaxMean)
	}
	if cfg.MinGap < 0 {
		return nil, perr.Configf("pingclock: min gap must not be negative, got %s", cfg.MinGap)
	}
	floor := max(cfg.MinGap.Truncate(Resolution), Resolution)
	return &Clock{mean: cfg.Mean, minGap: floor}, nil
}

// Mean returns the configured mean gap
func (c *Clock) Mean() time.Duration { return c.mean }

// XorShift advances a 64-bit xorshift generator (shifts 21, 35, 4).
// Zero maps to zero, which is why a zero seed is never accepted
func XorShift(seed uint64) uint64 {
	x := seed
	x ^= x << 21
	x ^= x >> 35
	x ^= x << 4
	return x
}

// Gap returns the exponentially distributed gap encoded by seed.
// u = seed/2^64 in [0,1), gap = -mean*ln(1-u), rounded to Resolution
func (c *Clock) Gap(seed uint64) time.Duration {
	u := float64(seed) / two64
	// float64(seed) rounds up to 2^64 for seeds near the top
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	sec := -c.mean.Seconds() * math.Log1p(-u)
	us := math.RoundToEven(sec * 1e6)
	gap := time.Duration(us) * time.Microsecond
	if gap < c.minGap {
		gap = c.minGap
	}
	return gap
}

// Next returns the successor seed and the gap separating the two pings
func (c *Clock) Next(seed uint64) (uint64, time.Duration) {
	return XorShift(seed), c.Gap(seed)
}

// Step returns the point that follows p
func (c *Clock) Step(p Point) Point {
	next, gap := c.Next(p.Seed)
	return Point{Seed: next, Time: p.Time.Add(gap)}
}
