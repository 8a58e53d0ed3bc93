package recommend

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/qhana/plugin-registry/internal/store"
)

// DefaultTimeout and DefaultLimit match spec §4.6's defaults.
const (
	DefaultTimeout = 5 * time.Second
	DefaultLimit   = 5
	MinLimit       = 1
	MaxLimit       = 100
	MinTimeout     = 500 * time.Millisecond
	MaxTimeout     = 300 * time.Second
)

// Result is one ranked recommendation.
type Result struct {
	PluginID uint
	Score    float64
}

// Engine runs the voter ensemble and produces admissible, ranked
// recommendations, per spec §4.6's "Orchestration" and "Admissibility
// filter" steps, grounded on get_recommendations/merge_results.
type Engine struct {
	store    *store.Store
	registry *Registry
	weights  map[string]float64
	logger   *slog.Logger
}

// NewEngine creates an Engine. weights maps voter name to its configured
// multiplier (spec §6's PLUGIN_RECOMMENDER_WEIGHTS); a voter with no entry
// defaults to weight 1.
func NewEngine(st *store.Store, registry *Registry, weights map[string]float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, registry: registry, weights: weights, logger: logger}
}

func (e *Engine) weightFor(voter string) float64 {
	if w, ok := e.weights[voter]; ok {
		return w
	}
	return 1
}

type taskOutcome struct {
	voter string
	votes []Vote
	err   error
}

// Recommend runs the full orchestration: gather each voter's tasks, submit
// them as a parallel group bounded by timeout, fold successful results into
// per-plugin scores weighted per voter, filter to admissible plugins, sort
// by score descending, and return the top `limit`.
//
// Per spec §5's cancellation rule ("partial results from successful voters
// are used even if some voters time out"), the collector loop itself
// enforces the wall-clock deadline with a select on time.After rather than
// blocking on every goroutine's completion — a voter task that ignores its
// context and keeps running past the deadline is simply not waited on; its
// result, if it arrives late, is discarded by the collector exiting first.
func (e *Engine) Recommend(ctx context.Context, rc *Context, timeout time.Duration, limit int) ([]Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type namedTask struct {
		voter string
		task  Task
	}
	var allTasks []namedTask
	for _, v := range e.registry.Voters() {
		tasks, err := v.GetVotes(taskCtx, rc)
		if err != nil {
			e.logger.Error("voter failed to produce tasks", "voter", v.Name(), "error", err)
			continue
		}
		for _, t := range tasks {
			allTasks = append(allTasks, namedTask{voter: v.Name(), task: t})
		}
	}

	if len(allTasks) == 0 {
		return nil, nil
	}

	results := make(chan taskOutcome, len(allTasks))
	for _, nt := range allTasks {
		nt := nt
		go func() {
			votes, err := nt.task(taskCtx)
			results <- taskOutcome{voter: nt.voter, votes: votes, err: err}
		}()
	}

	scores := map[uint]float64{}
	deadline := time.After(timeout)
	received := 0
collect:
	for received < len(allTasks) {
		select {
		case out := <-results:
			received++
			if out.err != nil {
				e.logger.Info("voter task failed", "voter", out.voter, "error", out.err)
				continue
			}
			weight := e.weightFor(out.voter)
			for _, v := range out.votes {
				scores[v.PluginID] += v.Weight * weight
			}
		case <-deadline:
			e.logger.Info("recommendation deadline reached, using partial results",
				"received", received, "total", len(allTasks))
			break collect
		}
	}

	admissible, err := FilterAdmissible(e.store, scores, rc.AvailableData)
	if err != nil {
		return nil, err
	}

	sorted := make([]Result, 0, len(admissible))
	for pluginID, score := range admissible {
		sorted = append(sorted, Result{PluginID: pluginID, Score: score})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].PluginID < sorted[j].PluginID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// ClampTimeout clamps a requested timeout into spec §4.6's configurable
// 0.5..300s range.
func ClampTimeout(d time.Duration) time.Duration {
	if d < MinTimeout {
		return MinTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// ClampLimit clamps a requested result limit into spec §4.6's configurable
// 1..100 range.
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
