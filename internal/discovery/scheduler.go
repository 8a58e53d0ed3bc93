package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/store"
)

// MinDiscoveryInterval is the floor from spec §4.4: configured intervals
// below 5s (other than the disabling -1) are a configuration error.
const MinDiscoveryInterval = 5 * time.Second

// SchedulerConfig controls the periodic discovery and purge ticks.
type SchedulerConfig struct {
	// DiscoveryInterval is the time between crawl ticks; <= 0 disables the
	// discovery ticker entirely.
	DiscoveryInterval time.Duration
	// PurgeInterval is the time between purge ticks; <= 0 disables purging.
	PurgeInterval time.Duration
	// PurgeAfter is the purge window handed to the purge job.
	PurgeAfter PurgeAfter
	// BatchSize is the per-batch discovery fan-out (spec §4.4: default 50).
	BatchSize int
	// Stagger is the pause between enqueued batches, spreading job-table
	// writes so a large seed list doesn't land as one burst.
	Stagger time.Duration
}

// DefaultSchedulerConfig returns the spec defaults: 15 minute discovery and
// purge intervals, 50 seeds per batch.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DiscoveryInterval: 15 * time.Minute,
		PurgeInterval:     15 * time.Minute,
		PurgeAfter:        AutoPurge(),
		BatchSize:         50,
		Stagger:           time.Second,
	}
}

// Scheduler drives the periodic enqueue of discovery and purge jobs the way
// the worker pool's cleanupLoop drives its own ticker. Only the leader
// replica enqueues, so a multi-replica deployment crawls once per tick.
type Scheduler struct {
	store  *store.Store
	jobs   *jobs.Store
	cfg    SchedulerConfig
	leader func() bool
	logger *slog.Logger
}

// NewScheduler validates cfg and creates a Scheduler. leader gates each
// tick; pass nil for a single-replica deployment. A discovery interval
// above zero but below MinDiscoveryInterval is a configuration error
// surfaced at startup (spec §7 #6).
func NewScheduler(st *store.Store, js *jobs.Store, cfg SchedulerConfig, leader func() bool, logger *slog.Logger) (*Scheduler, error) {
	if cfg.DiscoveryInterval > 0 && cfg.DiscoveryInterval < MinDiscoveryInterval {
		return nil, fmt.Errorf("discovery interval %s is below the %s minimum", cfg.DiscoveryInterval, MinDiscoveryInterval)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if leader == nil {
		leader = func() bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: st, jobs: js, cfg: cfg, leader: leader, logger: logger}, nil
}

// Run starts the discovery and purge tickers and blocks until ctx is
// cancelled. Each enabled ticker fires once immediately so a fresh
// deployment crawls without waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.DiscoveryInterval <= 0 && s.cfg.PurgeInterval <= 0 {
		s.logger.Info("discovery and purge schedulers disabled")
		<-ctx.Done()
		return
	}

	if s.cfg.DiscoveryInterval > 0 {
		go s.tickLoop(ctx, s.cfg.DiscoveryInterval, "discovery", s.discoveryTick)
	}
	if s.cfg.PurgeInterval > 0 {
		go s.tickLoop(ctx, s.cfg.PurgeInterval, "purge", s.purgeTick)
	}

	<-ctx.Done()
}

func (s *Scheduler) tickLoop(ctx context.Context, interval time.Duration, name string, tick func(ctx context.Context)) {
	s.logger.Info("scheduler loop starting", "loop", name, "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if s.leader() {
		tick(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler loop stopped", "loop", name)
			return
		case <-ticker.C:
			if !s.leader() {
				continue
			}
			tick(ctx)
		}
	}
}

// discoveryTick reads every seed and enqueues a root discovery job per seed
// (depth 0, delete_on_missing true), in batches of BatchSize with a stagger
// pause between batches, spec §4.4 steps 1-2.
func (s *Scheduler) discoveryTick(ctx context.Context) {
	seeds, err := s.store.ListSeeds()
	if err != nil {
		s.logger.Error("discovery tick failed to list seeds", "error", err)
		return
	}

	enqueued := 0
	for start := 0; start < len(seeds); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(seeds) {
			end = len(seeds)
		}
		for _, seed := range seeds[start:end] {
			params := DiscoverParams{URL: seed.URL, RootSeedID: seed.ID, Depth: 0, DeleteOnMissing: true}
			payload, err := json.Marshal(params)
			if err != nil {
				s.logger.Error("marshal discover params", "seedID", seed.ID, "error", err)
				continue
			}
			if _, err := s.jobs.Enqueue(&jobs.Job{
				ID:             newJobID(),
				Kind:           jobs.KindDiscoverSeed,
				Payload:        string(payload),
				RequestedBy:    "discovery-scheduler",
				RequestedAt:    time.Now(),
				IdempotencyKey: "discover:" + seed.URL,
			}); err != nil {
				s.logger.Error("enqueue seed discovery", "seedID", seed.ID, "error", err)
				continue
			}
			enqueued++
		}

		if end < len(seeds) && s.cfg.Stagger > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.Stagger):
			}
		}
	}

	s.logger.Info("discovery tick enqueued seeds", "seeds", len(seeds), "enqueued", enqueued)
}

// purgeTick enqueues one purge job carrying the configured window.
func (s *Scheduler) purgeTick(ctx context.Context) {
	payload, err := json.Marshal(PurgeParams{
		PurgeAfter:        s.cfg.PurgeAfter,
		DiscoveryInterval: s.cfg.DiscoveryInterval,
	})
	if err != nil {
		s.logger.Error("marshal purge params", "error", err)
		return
	}
	if _, err := s.jobs.Enqueue(&jobs.Job{
		ID:             newJobID(),
		Kind:           jobs.KindPurge,
		Payload:        string(payload),
		RequestedBy:    "purge-scheduler",
		RequestedAt:    time.Now(),
		IdempotencyKey: "purge",
	}); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		s.logger.Error("enqueue purge", "error", err)
	}
}
