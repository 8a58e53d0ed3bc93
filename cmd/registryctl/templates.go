package main

import (
	"strconv"

	"github.com/qhana/plugin-registry/internal/config"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage UI templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		templates, err := st.ListTemplates()
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printJSON(templates)
		}
		rows := make([][]string, 0, len(templates))
		for _, t := range templates {
			rows = append(rows, []string{strconv.FormatUint(uint64(t.ID), 10), t.Name, t.Description})
		}
		printTable([]string{"id", "name", "description"}, rows)
		return nil
	},
}

var templatesLoadCmd = &cobra.Command{
	Use:   "load <file-or-folder>",
	Short: "Load JSON template definitions from a file or folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		return config.LoadUITemplates(args[0], st, cliLogger())
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesLoadCmd)
}
