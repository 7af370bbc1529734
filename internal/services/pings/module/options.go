package module

import (
	"time"

	"tagtime/internal/core/pingclock"
	"tagtime/internal/core/schedule"
	"tagtime/internal/platform/config"
	perr "tagtime/internal/platform/errors"
)

// Options for the pings module
type Options struct {
	Epoch       time.Time
	InitialSeed uint64
	Mean        time.Duration
	MinGap      time.Duration

	// LockTimeout bounds row lock waits inside postgres transactions
	LockTimeout time.Duration
}

// FromConfig fills options from environment
// TAGTIME_SCHEDULE_EPOCH (default 1335000000) is the unix second of the first ping
// TAGTIME_SCHEDULE_SEED (default 1234) is the seed of the first ping
// TAGTIME_SCHEDULE_MEAN (default 45m) is the mean gap between pings
// TAGTIME_SCHEDULE_MIN_GAP (default 0) floors every gap
// CORE_PINGS_LOCK_TIMEOUT (default 5s) applies to postgres only
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("TAGTIME_SCHEDULE_")
	return Options{
		Epoch:       time.Unix(s.MayInt64("EPOCH", 1335000000), 0).UTC(),
		InitialSeed: s.MayUint64("SEED", 1234),
		Mean:        s.MayDuration("MEAN", 45*time.Minute),
		MinGap:      s.MayDuration("MIN_GAP", 0),
		LockTimeout: cfg.Prefix("CORE_PINGS_").MayDuration("LOCK_TIMEOUT", 5*time.Second),
	}
}

// Schedule builds the ping schedule described by o
func (o Options) Schedule() (*schedule.Schedule, error) {
	clock, err := pingclock.New(pingclock.Config{Mean: o.Mean, MinGap: o.MinGap})
	if err != nil {
		return nil, err
	}
	if o.Epoch.Unix() <= 0 {
		return nil, perr.Configf("schedule epoch must be after 1970, got %s", o.Epoch.Format(time.RFC3339))
	}
	return schedule.New(schedule.Config{Epoch: o.Epoch, InitialSeed: o.InitialSeed, Clock: clock})
}
