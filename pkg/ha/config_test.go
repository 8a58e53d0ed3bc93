package ha

import (
	"os"
	"testing"
	"time"
)

func TestDefaultHAConfig(t *testing.T) {
	cfg := DefaultHAConfig()

	if cfg.LeaderElectionEnabled {
		t.Error("LeaderElectionEnabled should be false by default")
	}
	if cfg.LockName != "registry-server-leader" {
		t.Errorf("LockName = %q, want %q", cfg.LockName, "registry-server-leader")
	}
	if cfg.LeaseDuration != 15*time.Second {
		t.Errorf("LeaseDuration = %v, want %v", cfg.LeaseDuration, 15*time.Second)
	}
	if cfg.RenewInterval != 5*time.Second {
		t.Errorf("RenewInterval = %v, want %v", cfg.RenewInterval, 5*time.Second)
	}
	if cfg.RetryPeriod != 2*time.Second {
		t.Errorf("RetryPeriod = %v, want %v", cfg.RetryPeriod, 2*time.Second)
	}
	if !cfg.MigrationLockEnabled {
		t.Error("MigrationLockEnabled should be true by default")
	}
}

func TestDefaultHAConfig_IdentityFromPodName(t *testing.T) {
	t.Setenv("POD_NAME", "registry-server-abc-123")

	cfg := DefaultHAConfig()
	if cfg.Identity != "registry-server-abc-123" {
		t.Errorf("Identity = %q, want %q", cfg.Identity, "registry-server-abc-123")
	}
}

func TestHAConfigFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		envs  map[string]string
		check func(t *testing.T, cfg *HAConfig)
	}{
		{
			name: "defaults when no env vars set",
			envs: map[string]string{},
			check: func(t *testing.T, cfg *HAConfig) {
				if cfg.LeaderElectionEnabled {
					t.Error("expected LeaderElectionEnabled=false")
				}
				if cfg.LockName != "registry-server-leader" {
					t.Errorf("LockName = %q, want %q", cfg.LockName, "registry-server-leader")
				}
			},
		},
		{
			name: "enabled via env",
			envs: map[string]string{
				"REGISTRY_LEADER_ELECTION_ENABLED": "true",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if !cfg.LeaderElectionEnabled {
					t.Error("expected LeaderElectionEnabled=true")
				}
			},
		},
		{
			name: "enabled via 1",
			envs: map[string]string{
				"REGISTRY_LEADER_ELECTION_ENABLED": "1",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if !cfg.LeaderElectionEnabled {
					t.Error("expected LeaderElectionEnabled=true")
				}
			},
		},
		{
			name: "custom lock name",
			envs: map[string]string{
				"REGISTRY_LEADER_LOCK_NAME": "my-lock",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if cfg.LockName != "my-lock" {
					t.Errorf("LockName = %q, want %q", cfg.LockName, "my-lock")
				}
			},
		},
		{
			name: "custom durations",
			envs: map[string]string{
				"REGISTRY_LEADER_LEASE_DURATION": "30",
				"REGISTRY_LEADER_RENEW_INTERVAL": "8",
				"REGISTRY_LEADER_RETRY_PERIOD":   "5",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if cfg.LeaseDuration != 30*time.Second {
					t.Errorf("LeaseDuration = %v, want %v", cfg.LeaseDuration, 30*time.Second)
				}
				if cfg.RenewInterval != 8*time.Second {
					t.Errorf("RenewInterval = %v, want %v", cfg.RenewInterval, 8*time.Second)
				}
				if cfg.RetryPeriod != 5*time.Second {
					t.Errorf("RetryPeriod = %v, want %v", cfg.RetryPeriod, 5*time.Second)
				}
			},
		},
		{
			name: "migration lock disabled",
			envs: map[string]string{
				"REGISTRY_MIGRATION_LOCK_ENABLED": "false",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if cfg.MigrationLockEnabled {
					t.Error("expected MigrationLockEnabled=false")
				}
			},
		},
		{
			name: "pod name as identity",
			envs: map[string]string{
				"POD_NAME": "pod-xyz",
			},
			check: func(t *testing.T, cfg *HAConfig) {
				if cfg.Identity != "pod-xyz" {
					t.Errorf("Identity = %q, want %q", cfg.Identity, "pod-xyz")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all relevant env vars.
			for _, key := range []string{
				"REGISTRY_LEADER_ELECTION_ENABLED",
				"REGISTRY_LEADER_LOCK_NAME",
				"REGISTRY_LEADER_LEASE_DURATION",
				"REGISTRY_LEADER_RENEW_INTERVAL",
				"REGISTRY_LEADER_RETRY_PERIOD",
				"REGISTRY_MIGRATION_LOCK_ENABLED",
				"POD_NAME",
			} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			// Set test env vars.
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg := HAConfigFromEnv()
			tt.check(t, cfg)
		})
	}
}
