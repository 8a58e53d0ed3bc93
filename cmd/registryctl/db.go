package main

import (
	"fmt"

	"github.com/qhana/plugin-registry/internal/config"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/pkg/audit"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database schema maintenance",
}

var dbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or upgrade the registry schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, db, _, err := openStore()
		if err != nil {
			return err
		}
		if err := st.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate catalog tables: %w", err)
		}
		if err := jobs.NewStore(db).AutoMigrate(); err != nil {
			return fmt.Errorf("migrate jobs table: %w", err)
		}
		if err := db.AutoMigrate(&audit.Event{}); err != nil {
			return fmt.Errorf("migrate audit table: %w", err)
		}
		fmt.Println("schema up to date")
		return nil
	},
}

var dbPreloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Apply configured env/seed/service/template preloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cfg, err := openStore()
		if err != nil {
			return err
		}
		config.Preload(cfg, st, cliLogger())
		fmt.Println("preload applied")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbCreateCmd)
	dbCmd.AddCommand(dbPreloadCmd)
}
