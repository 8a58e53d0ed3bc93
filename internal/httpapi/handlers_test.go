package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/materializer"
	"github.com/qhana/plugin-registry/internal/recommend"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	store  *store.Store
	jobs   *jobs.Store
	router http.Handler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	js := jobs.NewStore(db)
	require.NoError(t, js.AutoMigrate())

	registry := hypermedia.NewRegistry()
	hypermedia.RegisterDefaultGenerators(registry)

	voters := recommend.NewRegistry(
		recommend.NewCurrentDataRecommender(st),
		recommend.NewAvailableDataRecommender(st),
		recommend.NewStepDataRecommender(st),
		recommend.NewRuleBasedRecommender(st),
	)
	engine := recommend.NewEngine(st, voters, nil, nil)

	router := NewRouter(&Deps{
		Store:         st,
		Jobs:          js,
		Materializer:  materializer.New(db, st, nil),
		Recommender:   engine,
		VoterRegistry: voters,
		Registry:      registry,
		DebugRoutes:   true,
	})

	return &testEnv{db: db, store: st, jobs: js, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateSeedAndConflict(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/seeds/", `{"url": "http://runner"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "POST", "/api/seeds/", `{"url": "http://runner"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSeedMissingURLRejected(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "POST", "/api/seeds/", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootAdvertisesNavLinks(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "GET", "/api/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	links := body["links"].([]any)
	var hrefs []string
	for _, l := range links {
		hrefs = append(hrefs, l.(map[string]any)["href"].(string))
	}
	for _, expected := range []string{"/plugins/", "/seeds/", "/services/", "/env/", "/templates/", "/recommendations/"} {
		assert.Contains(t, hrefs, expected)
	}
}

func TestCreateTabMalformedFilterRejected(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/templates/", `{"name": "workspace"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "POST", "/api/templates/1/tabs/", `{
		"name": "broken", "location": "workspace",
		"filterString": "{\"version\": \"not-a-spec\"}"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&store.TemplateTab{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "no tab row may be created for a malformed filter")
}

func TestCreateTabGroupKeyInWorkspaceRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/templates/", `{"name": "workspace"}`)

	rec := env.do(t, "POST", "/api/templates/1/tabs/", `{
		"name": "group", "location": "workspace", "groupKey": "tools"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTabSchedulesMaterialization(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/templates/", `{"name": "workspace"}`)

	rec := env.do(t, "POST", "/api/templates/1/tabs/", `{
		"name": "clustering", "location": "workspace",
		"filterString": "{\"tag\": \"clustering\"}"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var count int64
	require.NoError(t, env.db.Table("jobs").Where("kind = ?", "materialize_tab").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTabLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/templates/", `{"name": "workspace"}`)
	rec := env.do(t, "POST", "/api/templates/1/tabs/", `{"name": "all", "location": "workspace", "filterString": "{}"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "GET", "/api/templates/1/tabs/1/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "PUT", "/api/templates/1/tabs/1/", `{"name": "renamed", "location": "workspace", "filterString": "{}"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "DELETE", "/api/templates/1/tabs/1/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/templates/1/tabs/1/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTabFromWrongTemplateIsNotFound(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/templates/", `{"name": "a"}`)
	env.do(t, "POST", "/api/templates/", `{"name": "b"}`)
	rec := env.do(t, "POST", "/api/templates/1/tabs/", `{"name": "all", "location": "workspace"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "GET", "/api/templates/2/tabs/1/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnvRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/env/", `{"name": "BACKEND", "value": "http://backend"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "GET", "/api/env/BACKEND/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "http://backend", data["value"])

	rec = env.do(t, "PUT", "/api/env/BACKEND/", `{"value": "http://other"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "DELETE", "/api/env/BACKEND/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/env/BACKEND/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPluginNotFound(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "GET", "/api/plugins/99/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPluginsPaginates(t *testing.T) {
	env := setupTestEnv(t)
	now := time.Now()
	for _, v := range []string{"1.0.0", "1.1.0", "2.0.0"} {
		_, _, err := env.store.UpsertPlugin(&store.Plugin{Identifier: "k-means", Version: v, Type: "processing"}, now)
		require.NoError(t, err)
	}

	rec := env.do(t, "GET", "/api/plugins/?item-count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 3, data["collectionSize"])
	assert.EqualValues(t, 1, data["page"])
	assert.Len(t, data["items"].([]any), 2)
}

func TestTriggerDiscoveryUnknownSeed(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "POST", "/api/plugins/?url=http://unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	now := time.Now()

	matching, _, err := env.store.UpsertPlugin(&store.Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}, now)
	require.NoError(t, err)
	io := store.IOData{
		PluginID: matching.ID, Identifier: "points", Required: true,
		Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list",
		ContentTypes: []store.ContentType{{ContentTypeStart: "application", ContentTypeEnd: "json"}},
	}
	require.NoError(t, env.db.Create(&io).Error)

	// Wrong type: never admissible even if its inputs match.
	viz, _, err := env.store.UpsertPlugin(&store.Plugin{Identifier: "plotter", Version: "1.0.0", Type: "visualization"}, now)
	require.NoError(t, err)
	vizIO := store.IOData{
		PluginID: viz.ID, Identifier: "points", Required: true,
		Relation: store.RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list",
		ContentTypes: []store.ContentType{{ContentTypeStart: "application", ContentTypeEnd: "json"}},
	}
	require.NoError(t, env.db.Create(&vizIO).Error)

	rec := env.do(t, "GET", "/api/recommendations/?data-type=entity/list&content-type=application/json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	items := body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.InDelta(t, 1.0, item["score"].(float64), 0.001)
	assert.Contains(t, item["plugin"].(map[string]any)["href"], "/plugins/")
}

func TestRecommendationsInvalidLimitRejected(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "GET", "/api/recommendations/?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugRoutesListVotersAndResources(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "GET", "/debug/voters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	voters := decodeBody(t, rec)["voters"].([]any)
	assert.Contains(t, voters, "CurrentDataRecommender")

	rec = env.do(t, "GET", "/debug/resources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resources := decodeBody(t, rec)["resourceTypes"].([]any)
	assert.Contains(t, resources, "plugin")
}
