// Package domain defines the ping log types and ports
package domain

import (
	"context"
	"time"
)

// Store is the persisted ping log every other component talks to
// every mutation is one transaction; storage failures are Unavailable
type Store interface {
	// Insert adds p unless its seed exists; an existing seed at a different
	// time is a consistency violation
	Insert(ctx context.Context, p Ping) error

	// InsertBatch inserts all of ps or none of them
	InsertBatch(ctx context.Context, ps []Ping) error

	// RecordAnswer marks the ping answered with the canonical tag set of raw
	RecordAnswer(ctx context.Context, seed uint64, raw []string) error

	// LastPing returns the newest ping, bootstrapping the first one when empty
	LastPing(ctx context.Context) (Ping, error)

	// LastPingBefore returns the newest ping strictly before t
	LastPingBefore(ctx context.Context, t time.Time) (Ping, error)

	// IsAnswered reports the answered flag of seed
	IsAnswered(ctx context.Context, seed uint64) (bool, error)

	// Get returns one ping with its tags
	Get(ctx context.Context, seed uint64) (Ping, error)

	// Range returns pings with time in [since, until), oldest first
	// limit <= 0 means no limit
	Range(ctx context.Context, since, until time.Time, limit int) ([]Ping, error)

	// Unanswered returns unanswered pings strictly before t, newest first
	Unanswered(ctx context.Context, before time.Time, limit int) ([]Ping, error)

	// Tags returns the tag vocabulary with usage counts
	Tags(ctx context.Context) ([]TagUse, error)
}

// Auditor checks the stored log against the schedule and fills its gaps
type Auditor interface {
	Verify(ctx context.Context) (VerifyReport, error)
	Repair(ctx context.Context) (int, error)
}

// ServicePort is what the module exports
type ServicePort interface {
	Store
	Auditor
}

// StorageRepo is the sql surface bound to a Queryer, usually a tx
type StorageRepo interface {
	// InsertIfAbsent inserts p and reports whether a row was written
	InsertIfAbsent(ctx context.Context, p Ping) (bool, error)

	// TimeOf returns the stored time of seed
	TimeOf(ctx context.Context, seed uint64) (time.Time, bool, error)

	// Get returns one ping without tags
	Get(ctx context.Context, seed uint64) (Ping, error)

	// Latest returns the newest ping; ok is false on an empty log
	Latest(ctx context.Context) (Ping, bool, error)

	// LatestBefore returns the newest ping strictly before t
	LatestBefore(ctx context.Context, t time.Time) (Ping, error)

	// MarkAnswered sets answered_at on an unanswered ping and reports
	// whether it changed
	MarkAnswered(ctx context.Context, seed uint64, at time.Time) (bool, error)

	// AttachTags records tags in the vocabulary and links them to seed
	AttachTags(ctx context.Context, seed uint64, tags []string, at time.Time) error

	// TagsOf returns the tags of every seed in seeds
	TagsOf(ctx context.Context, seeds []uint64) (map[uint64][]string, error)

	// Range lists pings with time in [since, until), oldest first
	Range(ctx context.Context, since, until time.Time, limit int) ([]Ping, error)

	// Unanswered lists unanswered pings before t, newest first
	Unanswered(ctx context.Context, before time.Time, limit int) ([]Ping, error)

	// Vocabulary lists every known tag with its usage count
	Vocabulary(ctx context.Context) ([]TagUse, error)
}
