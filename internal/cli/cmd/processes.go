package cmd

import (
	"fmt"

	"shuttle/internal/cli/ui"
	"shuttle/pkg/sdk"

	"github.com/spf13/cobra"
)

var processesCmd = &cobra.Command{
	Use:     "processes",
	Aliases: []string{"process", "ps"},
	Short:   "Manage processes",
}

var processesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all processes with their server",
	RunE: func(cmd *cobra.Command, args []string) error {
		processes, err := Client.ListProcesses()
		if err != nil {
			return fmt.Errorf("error listing processes: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), processes); done || err != nil {
			return err
		}
		rows := make([][]string, 0, len(processes))
		for _, p := range processes {
			rows = append(rows, []string{
				ui.StatusIcon(p.Status),
				p.ID,
				p.Type,
				p.Status,
				ui.ServerLabel(p.Server, "unassigned"),
			})
		}
		printTable(cmd.OutOrStdout(), "PROCESSES", []string{"", "ID", "TYPE", "STATUS", "SERVER"}, rows)
		return nil
	},
}

var processesGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := Client.GetProcess(args[0])
		if err != nil {
			return fmt.Errorf("error getting process: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), p); done || err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s (%s)\n", ui.StatusIcon(p.Status), p.ID, p.Type)
		fmt.Fprintf(w, "Status: %s\n", p.Status)
		fmt.Fprintf(w, "Server: %s\n", ui.ServerLabel(p.Server, "unassigned"))
		if p.StateData != nil {
			fmt.Fprintf(w, "State:  %d bytes\n", len(*p.StateData))
		}
		return nil
	},
}

var procType, procStatus, procServer string

var processesCreateCmd = &cobra.Command{
	Use:   "create [id]",
	Short: "Create a process, optionally on a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := sdk.CreateProcessRequest{ID: args[0], Type: procType, Status: procStatus}
		if procServer != "" {
			server := procServer
			req.ServerID = &server
		}
		p, err := Client.CreateProcess(req)
		if err != nil {
			return fmt.Errorf("error creating process: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Process %s created (%s) on %s\n", p.ID, p.Status, ui.Deref(p.ServerID, "no server"))
		return nil
	},
}

var processesUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change a process's type, status or server",
	Long:  "Change a process's type, status or server. --server \"\" unassigns it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req sdk.UpdateProcessRequest
		flags := cmd.Flags()
		if flags.Changed("type") {
			req.Type = &procType
		}
		if flags.Changed("status") {
			req.Status = &procStatus
		}
		if flags.Changed("server") {
			req.ServerID = &procServer
		}
		p, err := Client.UpdateProcess(args[0], req)
		if err != nil {
			return fmt.Errorf("error updating process: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Process %s is %s on %s\n", p.ID, p.Status, ui.Deref(p.ServerID, "no server"))
		return nil
	},
}

var processesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Client.DeleteProcess(args[0]); err != nil {
			return fmt.Errorf("error deleting process: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Process deleted successfully.")
		return nil
	},
}

func init() {
	c := processesCreateCmd.Flags()
	c.StringVar(&procType, "type", "", "Process type")
	c.StringVar(&procStatus, "status", "", "Initial status (running, paused, stopped)")
	c.StringVar(&procServer, "server", "", "Server to place it on")
	_ = processesCreateCmd.MarkFlagRequired("type")

	u := processesUpdateCmd.Flags()
	u.StringVar(&procType, "type", "", "Process type")
	u.StringVar(&procStatus, "status", "", "Status (running, paused, stopped)")
	u.StringVar(&procServer, "server", "", "Server id, empty to unassign")

	processesCmd.AddCommand(processesListCmd, processesGetCmd, processesCreateCmd, processesUpdateCmd, processesDeleteCmd)
	RootCmd.AddCommand(processesCmd)
}
