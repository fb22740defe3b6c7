package admission

import "time"

// Config holds the admission controller settings.
type Config struct {
	// MaxConcurrentGlobal is the initial global ceiling. It moves between
	// MinConcurrentGlobal and MaxConcurrentGlobalCeiling as load changes.
	MaxConcurrentGlobal        int
	MinConcurrentGlobal        int
	MaxConcurrentGlobalCeiling int

	// MaxConcurrentPerSubmitter caps the active entries of a single submitter.
	MaxConcurrentPerSubmitter int

	// MaxRetries is how many failures a request may report before it is dropped.
	MaxRetries int

	// AverageProcessingTime feeds the advisory wait estimate of a ticket.
	AverageProcessingTime time.Duration

	// StaleAfter is how long an entry may stay active before cleanup reclaims it.
	StaleAfter time.Duration

	AdjustInterval  time.Duration
	CleanupInterval time.Duration

	// The ceiling shrinks when utilization is above ScaleDownUtilization and
	// more than ScaleDownQueueLength requests wait. It grows when utilization
	// is below ScaleUpUtilization and nothing waits.
	ScaleDownUtilization float64
	ScaleDownQueueLength int
	ScaleUpUtilization   float64
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentGlobal:        3,
		MinConcurrentGlobal:        2,
		MaxConcurrentGlobalCeiling: 8,
		MaxConcurrentPerSubmitter:  1,
		MaxRetries:                 3,
		AverageProcessingTime:      30 * time.Second,
		StaleAfter:                 5 * time.Minute,
		AdjustInterval:             time.Minute,
		CleanupInterval:            time.Minute,
		ScaleDownUtilization:       0.9,
		ScaleDownQueueLength:       10,
		ScaleUpUtilization:         0.5,
	}
}

// withDefaults fills zero fields from DefaultConfig and keeps the initial
// ceiling inside its bounds.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinConcurrentGlobal <= 0 {
		c.MinConcurrentGlobal = d.MinConcurrentGlobal
	}
	if c.MaxConcurrentGlobalCeiling <= 0 {
		c.MaxConcurrentGlobalCeiling = d.MaxConcurrentGlobalCeiling
	}
	if c.MaxConcurrentGlobalCeiling < c.MinConcurrentGlobal {
		c.MaxConcurrentGlobalCeiling = c.MinConcurrentGlobal
	}
	if c.MaxConcurrentGlobal <= 0 {
		c.MaxConcurrentGlobal = d.MaxConcurrentGlobal
	}
	c.MaxConcurrentGlobal = min(max(c.MaxConcurrentGlobal, c.MinConcurrentGlobal), c.MaxConcurrentGlobalCeiling)
	if c.MaxConcurrentPerSubmitter <= 0 {
		c.MaxConcurrentPerSubmitter = d.MaxConcurrentPerSubmitter
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.AverageProcessingTime <= 0 {
		c.AverageProcessingTime = d.AverageProcessingTime
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.AdjustInterval <= 0 {
		c.AdjustInterval = d.AdjustInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.ScaleDownUtilization <= 0 {
		c.ScaleDownUtilization = d.ScaleDownUtilization
	}
	if c.ScaleDownQueueLength <= 0 {
		c.ScaleDownQueueLength = d.ScaleDownQueueLength
	}
	if c.ScaleUpUtilization <= 0 {
		c.ScaleUpUtilization = d.ScaleUpUtilization
	}
	return c
}
