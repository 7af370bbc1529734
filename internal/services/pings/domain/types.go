package domain

import (
	"time"

	"tagtime/internal/core/schedule"
)

// Ping is one scheduled sampling instant and, once answered, its tags
// Time never changes after insert; Answered flips false to true exactly once
type Ping struct {
	Seed       uint64     `json:"seed,string"`
	Time       time.Time  `json:"time"`
	CreatedAt  time.Time  `json:"created_at"`
	Answered   bool       `json:"answered"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	Tags       []string   `json:"tags"`
}

// Point returns the chain position of p
func (p Ping) Point() schedule.Point { return schedule.Point{Seed: p.Seed, Time: p.Time} }

// FromPoint builds an unanswered ping for a freshly scheduled point
func FromPoint(pt schedule.Point, now time.Time) Ping {
	return Ping{Seed: pt.Seed, Time: pt.Time.UTC(), CreatedAt: now.UTC().Truncate(time.Microsecond)}
}

// FromPoints maps a batch of scheduled points
func FromPoints(pts []schedule.Point, now time.Time) []Ping {
	out := make([]Ping, len(pts))
	for i, pt := range pts {
		out[i] = FromPoint(pt, now)
	}
	return out
}

// TagUse is one vocabulary entry with how many pings carry it
type TagUse struct {
	Tag  string `json:"tag"`
	Uses int    `json:"uses"`
}

// Divergence is a stored ping whose time disagrees with the chain
type Divergence struct {
	Seed   uint64    `json:"seed,string"`
	Stored time.Time `json:"stored"`
	Chain  time.Time `json:"chain"`
}

// VerifyReport compares the stored log against the canonical chain
type VerifyReport struct {
	Frontier    time.Time        `json:"frontier"`
	Checked     int              `json:"checked"`
	Missing     []schedule.Point `json:"missing,omitempty"`
	Unscheduled []uint64         `json:"unscheduled,omitempty"`
	Divergent   []Divergence     `json:"divergent,omitempty"`
}

// OK reports whether the log matches the chain exactly
func (r VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Unscheduled) == 0 && len(r.Divergent) == 0
}
