package jobs

import "time"

// Config controls job queue and worker behavior, grounded on the teacher's
// pkg/jobs/config.go JobConfig/DefaultJobConfig pairing.
type Config struct {
	Concurrency   int           // Max concurrent workers. Default 3.
	MaxRetries    int           // Max retry attempts per job. Default 3.
	PollInterval  time.Duration // How often workers poll for new jobs. Default 5s.
	ClaimTimeout  time.Duration // Max time a job can be "running" before considered stuck. Default 10m.
	RetentionDays int           // How long to keep completed/failed jobs. Default 7.
	Enabled       bool          // Whether the job system is active. Default true.
}

// DefaultConfig returns the default job configuration.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:   3,
		MaxRetries:    3,
		PollInterval:  5 * time.Second,
		ClaimTimeout:  10 * time.Minute,
		RetentionDays: 7,
		Enabled:       true,
	}
}
