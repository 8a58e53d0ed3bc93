package main

import (
	"fmt"
	"strconv"

	"github.com/qhana/plugin-registry/internal/store"
	"github.com/spf13/cobra"
)

var (
	serviceName        string
	serviceDescription string
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Manage external service records",
}

var servicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List services",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		services, err := st.ListServices()
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printJSON(services)
		}
		rows := make([][]string, 0, len(services))
		for _, s := range services {
			rows = append(rows, []string{strconv.FormatUint(uint64(s.ID), 10), s.ServiceID, s.URL, s.Name})
		}
		printTable([]string{"id", "service-id", "url", "name"}, rows)
		return nil
	},
}

var servicesAddCmd = &cobra.Command{
	Use:   "add <service-id> <url>",
	Short: "Add a service record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		svc, err := st.CreateService(&store.Service{
			ServiceID:   args[0],
			URL:         args[1],
			Name:        serviceName,
			Description: serviceDescription,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created service %d\n", svc.ID)
		return nil
	},
}

var servicesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a service by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid service id %q", args[0])
		}
		st, _, _, err := openStore()
		if err != nil {
			return err
		}
		return st.DeleteService(uint(id))
	},
}

func init() {
	servicesAddCmd.Flags().StringVar(&serviceName, "name", "", "human-readable service name")
	servicesAddCmd.Flags().StringVar(&serviceDescription, "description", "", "service description")

	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesAddCmd)
	servicesCmd.AddCommand(servicesRemoveCmd)
}
