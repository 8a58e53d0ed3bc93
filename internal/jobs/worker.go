package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler processes one job's payload. Returning an error marks the job
// failed (and re-queued, if retries remain); a nil error marks it succeeded.
type Handler func(ctx context.Context, payload string) error

// WorkerPool processes queued jobs using a pool of goroutines, grounded on
// the teacher's pkg/jobs/worker.go (cleanup goroutine + N worker goroutines,
// each on its own polling ticker, all joined on context cancellation).
type WorkerPool struct {
	store    *Store
	handlers map[Kind]Handler
	cfg      *Config
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. handlers maps each Kind the pool
// should claim to the function that processes it; the pool only claims jobs
// whose Kind has a registered handler.
func NewWorkerPool(store *Store, handlers map[Kind]Handler, cfg *Config, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{store: store, handlers: handlers, cfg: cfg, logger: logger}
}

func (wp *WorkerPool) kinds() []Kind {
	kinds := make([]Kind, 0, len(wp.handlers))
	for k := range wp.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Run starts the worker pool. It spawns cfg.Concurrency goroutines, each
// polling for jobs, plus a cleanup goroutine. It blocks until ctx is
// cancelled, then waits for all workers to finish.
func (wp *WorkerPool) Run(ctx context.Context) {
	if wp.store == nil || !wp.cfg.Enabled {
		wp.logger.Info("job worker pool disabled")
		return
	}

	wp.logger.Info("job worker pool starting",
		"concurrency", wp.cfg.Concurrency,
		"maxRetries", wp.cfg.MaxRetries,
		"pollInterval", wp.cfg.PollInterval.String())

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		wp.cleanupLoop(ctx)
	}()

	for i := 0; i < wp.cfg.Concurrency; i++ {
		wp.wg.Add(1)
		go func(workerID int) {
			defer wp.wg.Done()
			wp.workerLoop(ctx, workerID)
		}(i)
	}

	<-ctx.Done()
	wp.logger.Info("job worker pool shutting down, waiting for workers to finish")
	wp.wg.Wait()
	wp.logger.Info("job worker pool stopped")
}

func (wp *WorkerPool) workerLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(wp.cfg.PollInterval)
	defer ticker.Stop()

	wp.logger.Info("worker started", "workerID", workerID)

	for {
		select {
		case <-ctx.Done():
			wp.logger.Info("worker stopped", "workerID", workerID)
			return
		case <-ticker.C:
			wp.processOne(ctx, workerID)
		}
	}
}

func (wp *WorkerPool) processOne(ctx context.Context, workerID int) {
	job, err := wp.store.Claim(wp.kinds(), wp.cfg.MaxRetries)
	if err != nil {
		wp.logger.Error("failed to claim job", "workerID", workerID, "error", err)
		return
	}
	if job == nil {
		return
	}

	wp.logger.Info("processing job",
		"workerID", workerID, "jobID", job.ID, "kind", job.Kind, "attempt", job.AttemptCount)

	handler, ok := wp.handlers[job.Kind]
	if !ok {
		errMsg := "no handler registered for job kind: " + string(job.Kind)
		wp.logger.Error(errMsg, "jobID", job.ID)
		if err := wp.store.Fail(job.ID, errMsg, wp.cfg.MaxRetries); err != nil {
			wp.logger.Error("failed to mark job as failed", "jobID", job.ID, "error", err)
		}
		return
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, wp.cfg.ClaimTimeout)
	err = handler(runCtx, job.Payload)
	cancel()
	duration := time.Since(start)

	if err != nil {
		wp.logger.Error("job failed", "workerID", workerID, "jobID", job.ID, "error", err)
		if failErr := wp.store.Fail(job.ID, err.Error(), wp.cfg.MaxRetries); failErr != nil {
			wp.logger.Error("failed to mark job as failed", "jobID", job.ID, "error", failErr)
		}
		return
	}

	wp.logger.Info("job completed", "workerID", workerID, "jobID", job.ID, "duration", duration.String())
	if err := wp.store.Complete(job.ID, duration.Milliseconds(), "ok"); err != nil {
		wp.logger.Error("failed to mark job as complete", "jobID", job.ID, "error", err)
	}
}

func (wp *WorkerPool) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if wp.cfg.ClaimTimeout > 0 {
				recovered, err := wp.store.CleanupStuckJobs(wp.cfg.ClaimTimeout)
				if err != nil {
					wp.logger.Error("failed to cleanup stuck jobs", "error", err)
				} else if recovered > 0 {
					wp.logger.Info("recovered stuck jobs", "count", recovered)
				}
			}

			if wp.cfg.RetentionDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -wp.cfg.RetentionDays)
				deleted, err := wp.store.DeleteOlderThan(cutoff)
				if err != nil {
					wp.logger.Error("failed to delete old jobs", "error", err)
				} else if deleted > 0 {
					wp.logger.Info("deleted old jobs", "count", deleted)
				}
			}
		}
	}
}
