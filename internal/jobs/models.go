// Package jobs is the durable task queue + worker pool tier underlying the
// discovery crawler (C4) and tab materializer (C5); recommendation (C6) runs
// its own goroutines and does not use it. Adapted from the teacher's pkg/jobs: RefreshJob's
// "one job per plugin source" shape is generalized into a polymorphic Job
// record dispatched by Kind to a registered handler, keeping the same
// claim/retry/stuck-cleanup/retention semantics.
package jobs

import "time"

// State is a job's lifecycle state.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Kind identifies which handler processes a job, corresponding to the task
// tier's task types enumerated in spec §5: per-seed discovery, purge, tab
// filter application and tab-membership refresh use the jobs.WorkerPool the
// same way the teacher's refresh jobs do, rather than each inventing its own
// scheduling loop. Context enrichment and voter computation are not job
// kinds; the recommend package runs them in goroutines.
type Kind string

const (
	KindDiscoverSeed      Kind = "discover_seed"
	KindPurge             Kind = "purge"
	KindMaterializeTab    Kind = "materialize_tab"
	KindMaterializePlugin Kind = "materialize_plugin"
)

// Job is the GORM model for a queued unit of background work. Payload holds
// a JSON-encoded, kind-specific argument blob (e.g. {"url":...,"depth":...}
// for KindDiscoverSeed), decoded by the registered handler.
type Job struct {
	ID             string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	Kind           Kind       `gorm:"column:kind;index:idx_job_kind_state,priority:1;not null"`
	Payload        string     `gorm:"column:payload;type:text"`
	RequestedBy    string     `gorm:"column:requested_by"`
	RequestedAt    time.Time  `gorm:"column:requested_at;not null"`
	State          State      `gorm:"column:state;index:idx_job_kind_state,priority:2;index:idx_job_state;not null;default:queued"`
	Progress       string     `gorm:"column:progress"`
	Message        string     `gorm:"column:message"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at"`
	AttemptCount   int        `gorm:"column:attempt_count;default:0"`
	LastError      string     `gorm:"column:last_error"`
	IdempotencyKey string     `gorm:"column:idempotency_key;uniqueIndex:idx_job_idemp_key"`
	DurationMs     int64      `gorm:"column:duration_ms"`
}

// TableName returns the GORM table name.
func (Job) TableName() string { return "jobs" }

// IsTerminal reports whether the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	switch j.State {
	case StateSucceeded, StateFailed, StateCanceled:
		return true
	}
	return false
}
