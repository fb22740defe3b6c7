package task

import "time"

// SchedulerConfig holds configuration for the task scheduler
type SchedulerConfig struct {
	// ConcurrentLimit bounds the number of generation attempts in flight
	ConcurrentLimit int

	// MaxInFlightPerSubmitter bounds the attempts in flight for one submitter.
	// Zero means no per-submitter bound.
	MaxInFlightPerSubmitter int

	// MaxAttempts is used for tasks that do not set their own budget
	MaxAttempts int

	// RetryDelays is indexed by the number of failed attempts minus one; the
	// last entry repeats
	RetryDelays []time.Duration

	// AttemptTimeout bounds a single generator call
	AttemptTimeout time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ConcurrentLimit:         3,
		MaxInFlightPerSubmitter: 1,
		MaxAttempts:             4,
		RetryDelays: []time.Duration{
			5 * time.Second,
			15 * time.Second,
			45 * time.Second,
			120 * time.Second,
		},
		AttemptTimeout: 2 * time.Minute,
	}
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	d := DefaultSchedulerConfig()
	if c.ConcurrentLimit <= 0 {
		c.ConcurrentLimit = d.ConcurrentLimit
	}
	if c.MaxInFlightPerSubmitter < 0 {
		c.MaxInFlightPerSubmitter = 0
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if len(c.RetryDelays) == 0 {
		c.RetryDelays = d.RetryDelays
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	return c
}

// retryDelay returns the wait before the next attempt after the given number
// of attempts has failed.
func (c SchedulerConfig) retryDelay(attempts int) time.Duration {
	i := min(max(attempts-1, 0), len(c.RetryDelays)-1)
	return c.RetryDelays[i]
}
