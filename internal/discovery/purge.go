package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/qhana/plugin-registry/internal/store"
)

// PurgeAfter encodes the three shapes spec §4.4's purge_after parameter can
// take: never-purge, "auto" (10x discovery interval), or a fixed duration.
type PurgeAfter struct {
	Never    bool
	Auto     bool
	Duration time.Duration
}

// NeverPurge is the PurgeAfter value for "never" | null | -1.
func NeverPurge() PurgeAfter { return PurgeAfter{Never: true} }

// AutoPurge is the PurgeAfter value for "auto".
func AutoPurge() PurgeAfter { return PurgeAfter{Auto: true} }

// FixedPurge is the PurgeAfter value for a positive integer-seconds purge_after.
func FixedPurge(d time.Duration) PurgeAfter { return PurgeAfter{Duration: d} }

// Purger runs the purge task from spec §4.4.
type Purger struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPurger creates a Purger.
func NewPurger(st *store.Store, logger *slog.Logger) *Purger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purger{store: st, logger: logger}
}

// Run executes one purge pass. discoveryInterval is used to resolve "auto"
// into 10x that interval, per spec §4.4: "'auto' -> use 10x discovery_interval
// if the latter is >=5s, else skip". Returns the number of plugins removed.
func (p *Purger) Run(purgeAfter PurgeAfter, discoveryInterval time.Duration) (int64, error) {
	if purgeAfter.Never {
		return 0, nil
	}

	var window time.Duration
	switch {
	case purgeAfter.Auto:
		if discoveryInterval < 5*time.Second {
			p.logger.Info("skipping auto purge: discovery interval below 5s floor", "interval", discoveryInterval)
			return 0, nil
		}
		window = 10 * discoveryInterval
	default:
		window = purgeAfter.Duration
		if window <= 0 {
			return 0, nil
		}
	}

	maxLastAvailable, err := p.store.MaxLastAvailable()
	if err != nil {
		return 0, fmt.Errorf("resolve purge anchor: %w", err)
	}
	if maxLastAvailable.IsZero() {
		// Empty catalog: nothing to purge and no anchor to compute from.
		return 0, nil
	}

	// The anchor is the maximum last_available across plugins (spec §4.4):
	// purging only progresses when discovery is actively refreshing
	// timestamps, so a stalled crawler never drains the whole catalog.
	cutoff := maxLastAvailable.Add(-window)

	removed, err := p.store.DeleteStaleBefore(cutoff)
	if err != nil {
		return removed, fmt.Errorf("delete stale plugins: %w", err)
	}
	if removed > 0 {
		p.logger.Info("purged stale plugins", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// PurgeParams is the job payload for jobs.KindPurge.
type PurgeParams struct {
	PurgeAfter        PurgeAfter    `json:"purgeAfter"`
	DiscoveryInterval time.Duration `json:"discoveryInterval"`
}

// HandlePurge is the jobs.Handler registered for jobs.KindPurge.
func (p *Purger) HandlePurge(ctx context.Context, payload string) error {
	var params PurgeParams
	if err := json.Unmarshal([]byte(payload), &params); err != nil {
		return fmt.Errorf("decode purge params: %w", err)
	}
	_, err := p.Run(params.PurgeAfter, params.DiscoveryInterval)
	return err
}

// ParsePurgeAfter decodes the config-file encoding of spec §6's
// PLUGIN_PURGE_AFTER key: "never", nil, or -1 -> NeverPurge; "auto" ->
// AutoPurge; a positive integer (seconds) -> FixedPurge.
func ParsePurgeAfter(raw any) (PurgeAfter, error) {
	switch v := raw.(type) {
	case nil:
		return NeverPurge(), nil
	case string:
		switch v {
		case "never", "":
			return NeverPurge(), nil
		case "auto":
			return AutoPurge(), nil
		default:
			secs, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return PurgeAfter{}, fmt.Errorf("invalid PLUGIN_PURGE_AFTER string %q", v)
			}
			if secs < 0 {
				return NeverPurge(), nil
			}
			return FixedPurge(time.Duration(secs) * time.Second), nil
		}
	case int:
		if v < 0 {
			return NeverPurge(), nil
		}
		return FixedPurge(time.Duration(v) * time.Second), nil
	case int64:
		if v < 0 {
			return NeverPurge(), nil
		}
		return FixedPurge(time.Duration(v) * time.Second), nil
	case float64:
		if v < 0 {
			return NeverPurge(), nil
		}
		return FixedPurge(time.Duration(v * float64(time.Second))), nil
	default:
		return PurgeAfter{}, fmt.Errorf("unsupported PLUGIN_PURGE_AFTER type %T", raw)
	}
}
