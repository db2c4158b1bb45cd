package scheduler

import (
	"time"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval         time.Duration
	JobTimeout          time.Duration
	EvaluationBatchSize int
	ExpiryBatchSize     int
	// EnabledJobs limits which jobs run; empty enables all of them.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:         time.Minute,
		JobTimeout:          30 * time.Second,
		EvaluationBatchSize: 100,
		ExpiryBatchSize:     50,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.EvaluationBatchSize <= 0 {
		c.EvaluationBatchSize = defaults.EvaluationBatchSize
	}
	if c.ExpiryBatchSize <= 0 {
		c.ExpiryBatchSize = defaults.ExpiryBatchSize
	}
	return c
}
