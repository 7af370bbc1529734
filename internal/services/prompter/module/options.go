package module

import (
	"time"

	"tagtime/internal/platform/config"
)

// Options for the prompter module
type Options struct {
	MaxRetries   int
	RetryBase    time.Duration
	RetryIdle    time.Duration
	MaxSleep     time.Duration
	EnableLeases bool
	LeaseTTL     time.Duration
}

// FromConfig fills options from environment
// CORE_PROMPTER_MAX_RETRIES (default 5) is the attempts per wake on transient store errors
// CORE_PROMPTER_RETRY_BASE (default 500ms) is the first backoff step
// CORE_PROMPTER_RETRY_IDLE (default 1m) is the wait after retries ran out
// CORE_PROMPTER_MAX_SLEEP (default 15m) caps a single alarm
// CORE_PROMPTER_LEASES (default false) enables the shared wake lease, for logs shared between devices
// CORE_PROMPTER_LEASE_TTL (default 1m) is when an abandoned lease can be reclaimed
func FromConfig(cfg config.Conf) Options {
	p := cfg.Prefix("CORE_PROMPTER_")
	return Options{
		MaxRetries:   p.MayInt("MAX_RETRIES", 5),
		RetryBase:    p.MayDuration("RETRY_BASE", 500*time.Millisecond),
		RetryIdle:    p.MayDuration("RETRY_IDLE", time.Minute),
		MaxSleep:     p.MayDuration("MAX_SLEEP", 15*time.Minute),
		EnableLeases: p.MayBool("LEASES", false),
		LeaseTTL:     p.MayDuration("LEASE_TTL", time.Minute),
	}
}
