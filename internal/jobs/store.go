package jobs

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store provides database operations for jobs, grounded on the teacher's
// pkg/jobs/store.go (idempotency-key transaction handling, FOR UPDATE SKIP
// LOCKED claim with a plain-SELECT fallback for dialects that don't support
// it, stuck-job recovery, retention cleanup).
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// AutoMigrate creates or updates the jobs table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&Job{})
}

// Enqueue creates a new queued job. If IdempotencyKey is non-empty and a
// non-terminal job with the same key exists, the existing job is returned
// instead of creating a duplicate. Safe for concurrent use.
func (s *Store) Enqueue(job *Job) (*Job, error) {
	if job.State == "" {
		job.State = StateQueued
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now()
	}

	if job.IdempotencyKey == "" {
		// Keep the unique key column populated so ad-hoc jobs never collide
		// with each other on the index.
		job.IdempotencyKey = "adhoc:" + job.ID
		if err := s.db.Create(job).Error; err != nil {
			return nil, fmt.Errorf("enqueue job: %w", err)
		}
		return job, nil
	}

	var result *Job
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing Job
		err := tx.Where("idempotency_key = ? AND state IN ?", job.IdempotencyKey,
			[]State{StateQueued, StateRunning}).First(&existing).Error
		if err == nil {
			result = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check idempotency key: %w", err)
		}

		// Free the key from any terminal holder (normally already released
		// by Complete/Fail; covers canceled jobs and legacy rows).
		var stale []Job
		if err := tx.Where("idempotency_key = ? AND state IN ?", job.IdempotencyKey,
			[]State{StateSucceeded, StateFailed, StateCanceled}).Find(&stale).Error; err == nil {
			for _, old := range stale {
				tx.Model(&Job{}).Where("id = ?", old.ID).Update("idempotency_key", "done:"+old.ID)
			}
		}

		if err := tx.Create(job).Error; err != nil {
			var raceExisting Job
			lookupErr := s.db.Where("idempotency_key = ? AND state IN ?", job.IdempotencyKey,
				[]State{StateQueued, StateRunning}).First(&raceExisting).Error
			if lookupErr == nil {
				result = &raceExisting
				return nil
			}
			return fmt.Errorf("enqueue job: %w", err)
		}
		result = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Claim atomically picks a queued job of the given kinds and transitions it
// to running. Uses FOR UPDATE SKIP LOCKED where supported (PostgreSQL).
// Returns nil if no jobs are available.
func (s *Store) Claim(kinds []Kind, maxRetries int) (*Job, error) {
	var job Job

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Raw(`
			SELECT * FROM jobs
			WHERE state = ? AND kind IN ? AND attempt_count <= ?
			ORDER BY requested_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, StateQueued, kinds, maxRetries).Scan(&job)

		if result.Error != nil {
			result = tx.Where("state = ? AND kind IN ? AND attempt_count <= ?", StateQueued, kinds, maxRetries).
				Order("requested_at ASC").
				Limit(1).
				First(&job)
			if result.Error != nil {
				if result.Error == gorm.ErrRecordNotFound {
					return nil
				}
				return result.Error
			}
		}

		if job.ID == "" {
			return nil
		}

		now := time.Now()
		return tx.Model(&Job{}).Where("id = ? AND state = ?", job.ID, StateQueued).
			Updates(map[string]any{
				"state":         StateRunning,
				"started_at":    now,
				"attempt_count": gorm.Expr("attempt_count + 1"),
			}).Error
	})

	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if job.ID == "" {
		return nil, nil
	}

	if err := s.db.First(&job, "id = ?", job.ID).Error; err != nil {
		return nil, fmt.Errorf("reload claimed job: %w", err)
	}
	return &job, nil
}

// Complete marks a job as succeeded. The idempotency key is rewritten to
// the job's own id so the slot frees up for the next enqueue without
// colliding with other terminal jobs on the unique index.
func (s *Store) Complete(jobID string, durationMs int64, message string) error {
	now := time.Now()
	result := s.db.Model(&Job{}).Where("id = ?", jobID).Updates(map[string]any{
		"state":           StateSucceeded,
		"finished_at":     now,
		"duration_ms":     durationMs,
		"message":         message,
		"idempotency_key": "done:" + jobID,
	})
	if result.Error != nil {
		return fmt.Errorf("complete job: %w", result.Error)
	}
	return nil
}

// Fail marks a job as failed. If the attempt count is within retries, it
// re-queues the job for retry.
func (s *Store) Fail(jobID string, errMsg string, maxRetries int) error {
	now := time.Now()

	var job Job
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("load job for fail: %w", err)
	}

	updates := map[string]any{
		"last_error":  errMsg,
		"finished_at": now,
	}

	if job.AttemptCount < maxRetries {
		updates["state"] = StateQueued
		updates["started_at"] = nil
		updates["finished_at"] = nil
	} else {
		updates["state"] = StateFailed
		updates["message"] = "max retries exceeded: " + errMsg
		updates["idempotency_key"] = "done:" + jobID
	}

	result := s.db.Model(&Job{}).Where("id = ?", jobID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("fail job: %w", result.Error)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *Store) Get(jobID string) (*Job, error) {
	var job Job
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// CleanupStuckJobs transitions running jobs stuck longer than claimTimeout
// back to queued for retry.
func (s *Store) CleanupStuckJobs(claimTimeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-claimTimeout)
	result := s.db.Model(&Job{}).
		Where("state = ? AND started_at < ?", StateRunning, cutoff).
		Updates(map[string]any{
			"state":      StateQueued,
			"started_at": nil,
			"last_error": "timed out (stuck job recovery)",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup stuck jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOlderThan removes terminal jobs older than the given cutoff.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("state IN ? AND finished_at < ?",
		[]State{StateSucceeded, StateFailed, StateCanceled}, cutoff).
		Delete(&Job{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
