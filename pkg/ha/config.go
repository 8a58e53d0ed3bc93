// Package ha provides high-availability primitives for running the registry
// server with multiple replicas: a database migration lock and a database-
// backed leader election so only one replica at a time drives the
// discovery/purge/materializer scheduler (spec §5's "Shared-resource
// policy" — the relational store is the one shared mutable resource, so
// singleton-loop coordination rides on it too instead of a separate
// coordination service).
package ha

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// HAConfig holds configuration for high-availability features.
type HAConfig struct {
	// LeaderElectionEnabled controls whether database-lock-based leader
	// election is active. When false, the instance behaves as the sole
	// leader (suitable for single-replica deployments).
	LeaderElectionEnabled bool

	// LockName identifies the advisory/table lock row used for leader
	// election, distinct from the migration lock's own lock id.
	LockName string

	// LeaseDuration is how long a held leadership lock is considered valid
	// without a renewal before another replica may claim it.
	LeaseDuration time.Duration

	// RenewInterval is how often the leader renews its lock while leading.
	RenewInterval time.Duration

	// RetryPeriod is how often a non-leader replica attempts to acquire
	// leadership.
	RetryPeriod time.Duration

	// MigrationLockEnabled controls whether database migration locking
	// is used to prevent concurrent schema changes.
	MigrationLockEnabled bool

	// Identity is the unique identity of this instance for leader election.
	// Defaults to the process hostname.
	Identity string
}

// DefaultHAConfig returns an HAConfig with sensible defaults.
func DefaultHAConfig() *HAConfig {
	return &HAConfig{
		LeaderElectionEnabled: false,
		LockName:              "registry-server-leader",
		LeaseDuration:         15 * time.Second,
		RenewInterval:         5 * time.Second,
		RetryPeriod:           2 * time.Second,
		MigrationLockEnabled:  true,
		Identity:              defaultIdentity(),
	}
}

// HAConfigFromEnv reads HA configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - REGISTRY_LEADER_ELECTION_ENABLED: "true" or "false" (default: "false")
//   - REGISTRY_LEADER_LOCK_NAME: lock row name (default: "registry-server-leader")
//   - REGISTRY_LEADER_LEASE_DURATION: seconds (default: 15)
//   - REGISTRY_LEADER_RENEW_INTERVAL: seconds (default: 5)
//   - REGISTRY_LEADER_RETRY_PERIOD: seconds (default: 2)
//   - REGISTRY_MIGRATION_LOCK_ENABLED: "true" or "false" (default: "true")
//   - POD_NAME: process identity for leader election
func HAConfigFromEnv() *HAConfig {
	cfg := DefaultHAConfig()

	if v := os.Getenv("REGISTRY_LEADER_ELECTION_ENABLED"); v != "" {
		cfg.LeaderElectionEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("REGISTRY_LEADER_LOCK_NAME"); v != "" {
		cfg.LockName = v
	}
	if v := os.Getenv("REGISTRY_LEADER_LEASE_DURATION"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.LeaseDuration = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("REGISTRY_LEADER_RENEW_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RenewInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("REGISTRY_LEADER_RETRY_PERIOD"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RetryPeriod = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("REGISTRY_MIGRATION_LOCK_ENABLED"); v != "" {
		cfg.MigrationLockEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("POD_NAME"); v != "" {
		cfg.Identity = v
	}

	return cfg
}

func defaultIdentity() string {
	if v := os.Getenv("POD_NAME"); v != "" {
		return v
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
