package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS template_tab_plugins (template_tab_id INTEGER, plugin_id INTEGER)`).Error)
	return st
}

func mustCreatePlugin(t *testing.T, st *store.Store, identifier, pluginType string, required []store.IOData) *store.Plugin {
	t.Helper()
	p := &store.Plugin{Identifier: identifier, Version: "1.0.0", Type: pluginType}
	created, _, err := st.UpsertPlugin(p, time.Now())
	require.NoError(t, err)
	for _, io := range required {
		io.PluginID = created.ID
		require.NoError(t, st.DB().Create(&io).Error)
	}
	return created
}

func TestCurrentDataRecommenderScoresPartialMatch(t *testing.T) {
	st := setupTestDB(t)
	p := mustCreatePlugin(t, st, "p1", "processing", []store.IOData{
		{Identifier: "a", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list"},
		{Identifier: "b", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "points"},
	})

	voter := NewCurrentDataRecommender(st)
	rc := &Context{CurrentData: []DataItem{{DataType: "entity/list"}}}

	tasks, err := voter.GetVotes(context.Background(), rc)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	votes, err := tasks[0](context.Background())
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, p.ID, votes[0].PluginID)
	assert.InDelta(t, 0.5, votes[0].Weight, 0.001)
}

func TestAvailableDataRecommenderSuppressedByCurrentData(t *testing.T) {
	st := setupTestDB(t)
	voter := NewAvailableDataRecommender(st)
	rc := &Context{CurrentData: []DataItem{{DataType: "entity/list"}}, AvailableData: map[string][]string{"entity/list": {"application/json"}}}

	tasks, err := voter.GetVotes(context.Background(), rc)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAvailableDataRecommenderVotesWhenFulfillable(t *testing.T) {
	st := setupTestDB(t)
	p := mustCreatePlugin(t, st, "p1", "processing", []store.IOData{
		{Identifier: "a", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list"},
	})
	voter := NewAvailableDataRecommender(st)
	rc := &Context{AvailableData: map[string][]string{"entity/list": {"application/json"}}}

	tasks, err := voter.GetVotes(context.Background(), rc)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	votes, err := tasks[0](context.Background())
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, p.ID, votes[0].PluginID)
	assert.Equal(t, 1.0, votes[0].Weight)
}

func TestFilterAdmissibleExcludesWrongTypeAndUnmetRequirements(t *testing.T) {
	st := setupTestDB(t)
	proc := mustCreatePlugin(t, st, "proc", "processing", []store.IOData{
		{Identifier: "a", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list"},
	})
	visual := mustCreatePlugin(t, st, "viz", "visualization", nil)
	unmet := mustCreatePlugin(t, st, "unmet", "processing", []store.IOData{
		{Identifier: "a", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "matrix"},
	})

	scores := map[uint]float64{proc.ID: 1, visual.ID: 1, unmet.ID: 1}
	available := map[string][]string{"entity/list": {"application/json"}}

	result, err := FilterAdmissible(st, scores, available)
	require.NoError(t, err)
	assert.Contains(t, result, proc.ID)
	assert.NotContains(t, result, visual.ID)
	assert.NotContains(t, result, unmet.ID)
}

func TestEngineRecommendEndToEnd(t *testing.T) {
	st := setupTestDB(t)
	p := mustCreatePlugin(t, st, "p1", "processing", []store.IOData{
		{Identifier: "a", Required: true, Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list"},
	})

	registry := NewRegistry(NewCurrentDataRecommender(st))
	engine := NewEngine(st, registry, map[string]float64{"CurrentDataRecommender": 2}, nil)

	rc := &Context{
		CurrentData:   []DataItem{{DataType: "entity/list"}},
		AvailableData: map[string][]string{"entity/list": {"application/json"}},
	}

	results, err := engine.Recommend(context.Background(), rc, time.Second, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, p.ID, results[0].PluginID)
	assert.InDelta(t, 2.0, results[0].Score, 0.001)
}

func TestEngineRecommendReturnsWithinTimeoutDespiteSlowVoter(t *testing.T) {
	st := setupTestDB(t)
	registry := NewRegistry(slowVoter{})
	engine := NewEngine(st, registry, nil, nil)

	start := time.Now()
	results, err := engine.Recommend(context.Background(), &Context{}, 100*time.Millisecond, 5)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Less(t, elapsed, 2*time.Second)
}

type slowVoter struct{}

func (slowVoter) Name() string { return "slow" }
func (slowVoter) GetVotes(ctx context.Context, rc *Context) ([]Task, error) {
	return []Task{func(ctx context.Context) ([]Vote, error) {
		time.Sleep(5 * time.Second)
		return []Vote{{PluginID: 1, Weight: 1}}, nil
	}}, nil
}

func TestRuleBasedRecommenderRequiresSuccessAndCurrentPlugin(t *testing.T) {
	st := setupTestDB(t)
	voter := NewRuleBasedRecommender(st)

	tasks, err := voter.GetVotes(context.Background(), &Context{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	success := true
	pid := uint(1)
	tasks, err = voter.GetVotes(context.Background(), &Context{StepSuccess: &success, CurrentPlugin: &pid})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestRuleBasedRecommenderMatchesTagPattern(t *testing.T) {
	st := setupTestDB(t)
	current := mustCreatePlugin(t, st, "clusterer", "processing", nil)
	tag, err := st.GetOrCreateTag("clustering")
	require.NoError(t, err)
	require.NoError(t, st.DB().Model(current).Association("Tags").Append(tag))

	viz := mustCreatePlugin(t, st, "viz", "visualization", nil)
	vizTag, err := st.GetOrCreateTag("visualization")
	require.NoError(t, err)
	require.NoError(t, st.DB().Model(viz).Association("Tags").Append(vizTag))

	voter := NewRuleBasedRecommender(st)
	votes, err := voter.vote(current.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, viz.ID, votes[0].PluginID)
}
