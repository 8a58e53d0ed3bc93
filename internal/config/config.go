// Package config loads the merged runtime configuration described by spec
// §6: environment variables, an explicit file, compiled-in defaults — in
// that precedence order — into one immutable struct. Grounded on
// uzzalhcse-CrawlPilot's internal/config/config.go viper default/unmarshal
// pattern, adapted from its server/database/browser/crawler sections to the
// registry's keys, plus godotenv for optional local `.env` loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/qhana/plugin-registry/internal/discovery"
	"github.com/spf13/viper"
)

// ServiceSeed is one entry of PRECONFIGURED_SERVICES.
type ServiceSeed struct {
	ServiceID   string `mapstructure:"service_id"`
	URL         string `mapstructure:"url"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Config is the fully merged, immutable configuration, keyed the way spec
// §6's table names its recognized keys.
type Config struct {
	DatabaseURL string `mapstructure:"sqlalchemy_database_uri"`

	BrokerURL     string `mapstructure:"broker_url"`
	ResultBackend string `mapstructure:"result_backend"`
	CeleryQueue   string `mapstructure:"celery_queue"`

	// PluginDiscoveryInterval is seconds between discovery ticks; -1 disables.
	PluginDiscoveryInterval int `mapstructure:"plugin_discovery_interval"`
	PluginBatchSize         int `mapstructure:"plugin_batch_size"`

	PluginPurgeInterval int    `mapstructure:"plugin_purge_interval"`
	PluginPurgeAfter    string `mapstructure:"plugin_purge_after"` // "auto" | "never" | seconds

	PluginRecommenderWeights map[string]float64 `mapstructure:"plugin_recommender_weights"`
	RecommendationTimeout    float64            `mapstructure:"recommendation_timeout"`
	RecommendationLimit      int                `mapstructure:"recommendation_limit"`

	CurrentEnv            map[string]string `mapstructure:"current_env"`
	InitialPluginSeeds    []string          `mapstructure:"initial_plugin_seeds"`
	PreconfiguredServices []ServiceSeed     `mapstructure:"preconfigured_services"`

	URLMapFromLocalhost []discovery.RawRule `mapstructure:"url_map_from_localhost"`
	URLMapToLocalhost   []discovery.RawRule `mapstructure:"url_map_to_localhost"`

	UITemplatePaths []string `mapstructure:"ui_template_paths"`

	ListenAddr string `mapstructure:"listen_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sqlalchemy_database_uri", "sqlite://registry.db")

	v.SetDefault("broker_url", "")
	v.SetDefault("result_backend", "")
	v.SetDefault("celery_queue", "plugin-registry")

	v.SetDefault("plugin_discovery_interval", 900)
	v.SetDefault("plugin_batch_size", 50)

	v.SetDefault("plugin_purge_interval", 900)
	v.SetDefault("plugin_purge_after", "auto")

	v.SetDefault("plugin_recommender_weights", map[string]any{})
	v.SetDefault("recommendation_timeout", 5.0)
	v.SetDefault("recommendation_limit", 5)

	v.SetDefault("current_env", map[string]any{})
	v.SetDefault("initial_plugin_seeds", []string{})
	v.SetDefault("preconfigured_services", []any{})

	v.SetDefault("url_map_from_localhost", []any{})
	v.SetDefault("url_map_to_localhost", []any{})

	v.SetDefault("ui_template_paths", []string{})

	v.SetDefault("listen_addr", ":8080")
}

// Load builds the merged Config. configFile, if non-empty, points at a
// config.toml/json/yaml in the instance folder (spec §6); it is optional —
// a missing file is not an error, only a malformed one is. A `.env` file in
// the working directory, if present, is loaded into the process environment
// before viper reads it, per the teacher's CLI tooling convention of
// supporting local env files.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config file %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a Config populated only with compiled-in defaults,
// for tests and for `registryctl` commands that don't need file/env merging.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
