// Package domain defines the prompter wake cycle types and ports
package domain

import (
	"context"
	"time"
)

// State is where a wake cycle ended up
type State string

const (
	StateIdle       State = "idle"
	StateExtending  State = "extending"
	StateDeciding   State = "deciding"
	StateNotifyUser State = "notify_user"
)

// Due is a ping handed to the user for an answer
type Due struct {
	Seed uint64    `json:"seed,string"`
	Time time.Time `json:"time"`
}

// Outcome describes one finished wake cycle
type Outcome struct {
	State State

	// Due is set when the cycle notified the user
	Due *Due

	// Frontier is the time of the newest stored ping; the next alarm
	Frontier time.Time

	// Extended counts the pings generated by this cycle
	Extended int
}

// Answer comes back from the notification collaborator
// Skip leaves the ping unanswered
type Answer struct {
	Seed uint64
	Tags []string
	Skip bool
}

// Notifier hands a due ping to whatever asks the user
type Notifier interface {
	Notify(ctx context.Context, d Due) error
}

// NotifierFunc adapts a func to Notifier
type NotifierFunc func(ctx context.Context, d Due) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, d Due) error { return f(ctx, d) }

// PrompterPort is what the module exports
type PrompterPort interface {
	// Wake runs one cycle now
	Wake(ctx context.Context) (Outcome, error)

	// Trigger asks the running loop for a wake; calls coalesce
	Trigger()

	// Run drives wake cycles until ctx ends or the log is inconsistent
	Run(ctx context.Context) error

	// Answer records or skips the user's answer
	Answer(ctx context.Context, a Answer) error

	// IsAnswered reports whether the ping already carries tags
	IsAnswered(ctx context.Context, seed uint64) (bool, error)
}
