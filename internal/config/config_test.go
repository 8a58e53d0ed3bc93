package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "sqlite://registry.db", cfg.DatabaseURL)
	assert.Equal(t, 900, cfg.PluginDiscoveryInterval)
	assert.Equal(t, 50, cfg.PluginBatchSize)
	assert.Equal(t, 900, cfg.PluginPurgeInterval)
	assert.Equal(t, "auto", cfg.PluginPurgeAfter)
	assert.Equal(t, 5.0, cfg.RecommendationTimeout)
	assert.Equal(t, 5, cfg.RecommendationLimit)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PLUGIN_DISCOVERY_INTERVAL", "30")
	t.Setenv("SQLALCHEMY_DATABASE_URI", "postgres://registry@db/registry")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.PluginDiscoveryInterval)
	assert.Equal(t, "postgres://registry@db/registry", cfg.DatabaseURL)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"plugin_discovery_interval": 120,
		"initial_plugin_seeds": ["http://runner-a"],
		"plugin_recommender_weights": {"CurrentDataRecommender": 2.5}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.PluginDiscoveryInterval)
	assert.Equal(t, []string{"http://runner-a"}, cfg.InitialPluginSeeds)
	assert.Equal(t, 2.5, cfg.PluginRecommenderWeights["CurrentDataRecommender"])
}

func TestLoadMalformedConfigFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
