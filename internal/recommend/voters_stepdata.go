package recommend

import (
	"context"

	"github.com/qhana/plugin-registry/internal/store"
)

// StepDataRecommender uses step input data (always) and step output data (if
// the step succeeded with acceptable data quality), scored the same way as
// CurrentDataRecommender, per spec §4.6, grounded on
// recommendations/recommenders/step_data.go's StepDataRecommender.
type StepDataRecommender struct {
	store *store.Store
}

// NewStepDataRecommender creates the voter.
func NewStepDataRecommender(st *store.Store) *StepDataRecommender {
	return &StepDataRecommender{store: st}
}

func (v *StepDataRecommender) Name() string { return "StepDataRecommender" }

func (v *StepDataRecommender) GetVotes(ctx context.Context, rc *Context) ([]Task, error) {
	data := append([]DataItem{}, rc.StepInputData...)
	if rc.StepSuccess != nil && *rc.StepSuccess && rc.StepDataQuality.acceptable() {
		data = append(data, rc.StepOutputData...)
	}
	if len(data) == 0 {
		return nil, nil
	}
	task := func(ctx context.Context) ([]Vote, error) {
		return voteOnDataMatch(v.store, data)
	}
	return []Task{task}, nil
}
