package ha

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// leaderLockRecord is the table-based lock row backing LeaderElector on
// non-PostgreSQL databases, the same shape as migrationLockRecord but
// renewable: the holder periodically bumps LockedAt to keep the lease
// fresh instead of releasing and reacquiring.
type leaderLockRecord struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (leaderLockRecord) TableName() string { return "leader_lock" }

// LeaderElector coordinates singleton background loops (discovery/purge
// scheduling, startup tab reconciliation) across multiple registry-server
// replicas using the shared database rather than a separate coordination
// service, per spec §5's "no explicit locks; concurrency correctness rests
// on database transactions". Grounded structurally on the teacher's
// Kubernetes-Lease LeaderElector (same OnStartLeading/OnStopLeading/IsLeader
// contract), adapted to a database lock since this registry carries no
// Kubernetes client dependency.
type LeaderElector struct {
	config   *HAConfig
	db       *gorm.DB
	identity string
	isLeader bool
	mu       sync.RWMutex
	logger   *slog.Logger
	onStart  func(ctx context.Context)
	onStop   func()
}

// NewLeaderElector creates a new LeaderElector. identity should be unique
// per replica (typically the hostname).
func NewLeaderElector(cfg *HAConfig, db *gorm.DB, identity string, logger *slog.Logger) *LeaderElector {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderElector{config: cfg, db: db, identity: identity, logger: logger}
}

// OnStartLeading registers a callback invoked when this instance becomes leader.
// The provided context is cancelled when leadership is lost.
func (le *LeaderElector) OnStartLeading(fn func(ctx context.Context)) {
	le.onStart = fn
}

// OnStopLeading registers a callback invoked when this instance loses leadership.
func (le *LeaderElector) OnStopLeading(fn func()) {
	le.onStop = fn
}

// IsLeader returns true if this instance is the current leader.
func (le *LeaderElector) IsLeader() bool {
	le.mu.RLock()
	defer le.mu.RUnlock()
	return le.isLeader
}

func (le *LeaderElector) setLeader(v bool) {
	le.mu.Lock()
	le.isLeader = v
	le.mu.Unlock()
}

// Run drives leader election until ctx is cancelled: while not leading, it
// polls every RetryPeriod trying to claim or steal a stale lock row; while
// leading, it renews the row every RenewInterval and calls onStart/onStop
// around the leading window.
func (le *LeaderElector) Run(ctx context.Context) {
	if le.db != nil {
		_ = le.db.AutoMigrate(&leaderLockRecord{})
	}

	le.logger.Info("starting leader election",
		"identity", le.identity, "lock", le.config.LockName,
		"leaseDuration", le.config.LeaseDuration, "retryPeriod", le.config.RetryPeriod)

	for {
		select {
		case <-ctx.Done():
			if le.IsLeader() {
				le.relinquish()
			}
			return
		default:
		}

		if le.tryAcquire() {
			le.lead(ctx)
			if ctx.Err() != nil {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(le.config.RetryPeriod):
		}
	}
}

// tryAcquire attempts to claim the lock row, stealing it first if it is
// stale (older than LeaseDuration). Returns whether this instance now holds it.
func (le *LeaderElector) tryAcquire() bool {
	if le.db == nil {
		return true
	}

	now := time.Now()
	le.db.Where("id = ? AND locked_at < ?", le.config.LockName, now.Add(-le.config.LeaseDuration)).
		Delete(&leaderLockRecord{})

	row := leaderLockRecord{ID: le.config.LockName, LockedAt: now, LockedBy: le.identity}
	result := le.db.Create(&row)
	return result.Error == nil
}

// lead runs the leading window: renews the lock on RenewInterval, calls
// onStart immediately and onStop when leadership ends, and returns when
// either ctx is cancelled or a renewal fails (the lock row no longer belongs
// to this instance, e.g. another replica took it over after it went stale).
func (le *LeaderElector) lead(ctx context.Context) {
	le.setLeader(true)
	le.logger.Info("elected as leader", "identity", le.identity)
	leadCtx, cancel := context.WithCancel(ctx)
	if le.onStart != nil {
		go le.onStart(leadCtx)
	}

	ticker := time.NewTicker(le.config.RenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cancel()
			le.relinquish()
			return
		case <-ticker.C:
			if !le.renew() {
				cancel()
				le.relinquish()
				return
			}
		}
	}
}

func (le *LeaderElector) renew() bool {
	if le.db == nil {
		return true
	}
	result := le.db.Model(&leaderLockRecord{}).
		Where("id = ? AND locked_by = ?", le.config.LockName, le.identity).
		Update("locked_at", time.Now())
	return result.Error == nil && result.RowsAffected > 0
}

func (le *LeaderElector) relinquish() {
	if le.db != nil {
		le.db.Where("id = ? AND locked_by = ?", le.config.LockName, le.identity).Delete(&leaderLockRecord{})
	}
	le.setLeader(false)
	le.logger.Info("lost leadership", "identity", le.identity)
	if le.onStop != nil {
		le.onStop()
	}
}
