package recommend

import (
	"context"

	"github.com/qhana/plugin-registry/internal/store"
)

// AvailableDataRecommender gives vote 1 to every plugin whose required
// consumed data requirements can all be fulfilled from rc.AvailableData,
// suppressed when current_data or step_output_data is present, per spec
// §4.6, grounded on recommendations/recommenders/available_data.go's
// AvailableDataRecommender.
type AvailableDataRecommender struct {
	store *store.Store
}

// NewAvailableDataRecommender creates the voter.
func NewAvailableDataRecommender(st *store.Store) *AvailableDataRecommender {
	return &AvailableDataRecommender{store: st}
}

func (v *AvailableDataRecommender) Name() string { return "AvailableDataRecommender" }

func (v *AvailableDataRecommender) GetVotes(ctx context.Context, rc *Context) ([]Task, error) {
	if len(rc.CurrentData) > 0 || len(rc.StepOutputData) > 0 {
		return nil, nil
	}
	if len(rc.AvailableData) == 0 {
		return nil, nil
	}
	available := rc.AvailableData
	st := v.store
	task := func(ctx context.Context) ([]Vote, error) {
		plugins, err := loadRequiredConsumed(st)
		if err != nil {
			return nil, err
		}
		var votes []Vote
		for _, p := range plugins {
			if allRequirementsSatisfiable(p.Required, available) {
				votes = append(votes, Vote{PluginID: p.PluginID, Weight: 1})
			}
		}
		return votes, nil
	}
	return []Task{task}, nil
}

// allRequirementsSatisfiable reports whether every required consumed entry
// can be fulfilled from the available_data map; a plugin with no
// requirements is trivially satisfiable.
func allRequirementsSatisfiable(reqs []ioRequirement, available map[string][]string) bool {
	for _, req := range reqs {
		if !requirementMatchesAvailable(req, available) {
			return false
		}
	}
	return true
}
