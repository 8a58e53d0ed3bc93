package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	return st
}

func TestPreloadEnvSeedsServices(t *testing.T) {
	st := setupTestStore(t)

	cfg := &Config{
		CurrentEnv:         map[string]string{"BACKEND_URL": "http://backend"},
		InitialPluginSeeds: []string{"http://runner-a", "http://runner-b"},
		PreconfiguredServices: []ServiceSeed{
			{ServiceID: "qhana-backend", URL: "http://backend", Name: "Backend"},
		},
	}
	Preload(cfg, st, nil)

	env, err := st.GetEnv("BACKEND_URL")
	require.NoError(t, err)
	assert.Equal(t, "http://backend", env.Value)

	seeds, err := st.ListSeeds()
	require.NoError(t, err)
	assert.Len(t, seeds, 2)

	svc, err := st.GetServiceByServiceID("qhana-backend")
	require.NoError(t, err)
	assert.Equal(t, "http://backend", svc.URL)
}

func TestPreloadSeedsOnlyWhenEmpty(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.CreateSeed("http://existing")
	require.NoError(t, err)

	Preload(&Config{InitialPluginSeeds: []string{"http://runner-a"}}, st, nil)

	seeds, err := st.ListSeeds()
	require.NoError(t, err)
	assert.Len(t, seeds, 1)
	assert.Equal(t, "http://existing", seeds[0].URL)
}

func TestPreloadIsIdempotent(t *testing.T) {
	st := setupTestStore(t)
	cfg := &Config{
		CurrentEnv: map[string]string{"KEY": "v1"},
		PreconfiguredServices: []ServiceSeed{
			{ServiceID: "qhana-backend", URL: "http://backend"},
		},
	}
	Preload(cfg, st, nil)
	cfg.CurrentEnv["KEY"] = "v2"
	Preload(cfg, st, nil)

	env, err := st.GetEnv("KEY")
	require.NoError(t, err)
	assert.Equal(t, "v2", env.Value)

	services, err := st.ListServices()
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func TestLoadUITemplatesFromFolder(t *testing.T) {
	st := setupTestStore(t)

	dir := t.TempDir()
	blob := `{
		"name": "analysis",
		"description": "Analysis workspace",
		"tags": ["ui"],
		"tabs": [
			{"name": "Clustering", "sortKey": 1, "location": "workspace",
			 "filterString": "{\"tag\": \"clustering\"}"},
			{"name": "All", "sortKey": 2, "location": "workspace", "filterString": ""}
		]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis.json"), []byte(blob), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	require.NoError(t, LoadUITemplates(dir, st, nil))

	templates, err := st.ListTemplates()
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "analysis", templates[0].Name)

	tabs, err := st.ListTabsForTemplate(templates[0].ID, "")
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, "Clustering", tabs[0].Name)

	// Re-loading updates in place rather than duplicating.
	require.NoError(t, LoadUITemplates(dir, st, nil))
	templates, err = st.ListTemplates()
	require.NoError(t, err)
	assert.Len(t, templates, 1)
	tabs, err = st.ListTabsForTemplate(templates[0].ID, "")
	require.NoError(t, err)
	assert.Len(t, tabs, 2)
}
