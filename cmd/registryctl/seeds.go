package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Manage discovery seed URLs",
}

var seedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		seeds, err := st.ListSeeds()
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printJSON(seeds)
		}
		rows := make([][]string, 0, len(seeds))
		for _, s := range seeds {
			rows = append(rows, []string{strconv.FormatUint(uint64(s.ID), 10), s.URL})
		}
		printTable([]string{"id", "url"}, rows)
		return nil
	},
}

var seedsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a seed URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		seed, err := st.CreateSeed(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created seed %d\n", seed.ID)
		return nil
	},
}

var seedsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a seed by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed id %q", args[0])
		}
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		return st.DeleteSeed(uint(id))
	},
}

func init() {
	seedsCmd.AddCommand(seedsListCmd)
	seedsCmd.AddCommand(seedsAddCmd)
	seedsCmd.AddCommand(seedsRemoveCmd)
}
