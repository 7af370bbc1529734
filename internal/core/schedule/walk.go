package schedule

import (
	"time"

	perr "tagtime/internal/platform/errors"
)

// Walk calls fn for from and every later point until fn returns false
func (s *Schedule) Walk(from Point, fn func(Point) bool) {
	cur := from
	for fn(cur) {
		cur = s.clock.Step(cur)
	}
}

// Before returns the last chain point strictly earlier than t, walking from
// the epoch. NotFound when t is not after the epoch
func (s *Schedule) Before(t time.Time) (Point, error) {
	if !t.After(s.epoch) {
		return Point{}, perr.NotFoundf("schedule: no ping before %s", t.UTC().Format(time.RFC3339))
	}
	prev := s.First()
	s.Walk(prev, func(p Point) bool {
		if !p.Time.Before(t) {
			return false
		}
		prev = p
		return true
	})
	return prev, nil
}

// Preview returns the n points that follow from
func (s *Schedule) Preview(from Point, n int) []Point {
	if n <= 0 {
		return nil
	}
	out := make([]Point, 0, n)
	cur := from
	for range n {
		cur = s.clock.Step(cur)
		out = append(out, cur)
	}
	return out
}

// Chain returns every point from the epoch through the first point at or
// after until, inclusive. Used to reconcile a stored log against the schedule
func (s *Schedule) Chain(until time.Time) []Point {
	var out []Point
	s.Walk(s.First(), func(p Point) bool {
		out = append(out, p)
		return p.Time.Before(until)
	})
	return out
}
