// Command registryctl is the registry's database-maintenance CLI: schema
// creation, seed/service/env administration, and template loading, operating
// directly on the configured database the way the server does.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/qhana/plugin-registry/internal/config"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

var (
	configFile string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "Admin CLI for the plugin registry",
	Long: `registryctl administers a plugin registry installation directly against
its database: schema setup, seed/service/env records, and UI template
loading. It reads the same configuration as registry-server.`,
	SilenceUsage: true,
}

func init() {
	// Accept snake_case flag spellings too, normalized to kebab-case.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("REGISTRY_CONFIG_FILE"), "path to a config file (toml/json/yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json")

	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(seedsCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(templatesCmd)
}

// openStore loads configuration and connects to the database, shared by
// every subcommand.
func openStore() (*store.Store, *gorm.DB, *config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return store.New(db), db, cfg, nil
}

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
