package main

import (
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage env entries exposed to crawled plugins",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List env entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		envs, err := st.ListEnv()
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printJSON(envs)
		}
		rows := make([][]string, 0, len(envs))
		for _, e := range envs {
			rows = append(rows, []string{e.Name, e.Value})
		}
		printTable([]string{"name", "value"}, rows)
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set an env entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		_, err = st.UpsertEnv(args[0], args[1])
		return err
	},
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <name>",
	Short: "Delete an env entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		return st.DeleteEnv(args[0])
	},
}

func init() {
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envSetCmd)
	envCmd.AddCommand(envUnsetCmd)
}
