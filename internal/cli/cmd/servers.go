package cmd

import (
	"fmt"

	"shuttle/internal/cli/ui"
	"shuttle/pkg/sdk"

	"github.com/spf13/cobra"
)

var serversCmd = &cobra.Command{
	Use:     "servers",
	Aliases: []string{"server"},
	Short:   "Manage server nodes",
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := Client.ListServers()
		if err != nil {
			return fmt.Errorf("error listing servers: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), servers); done || err != nil {
			return err
		}
		rows := make([][]string, 0, len(servers))
		for _, s := range servers {
			rows = append(rows, []string{
				ui.StatusIcon(s.Status),
				s.ID,
				s.Name,
				fmt.Sprintf("%s:%d", s.Host, s.Port),
				s.Status,
				s.Role,
				fmt.Sprintf("%d%%", s.CPUUsage),
				s.MemoryUsage,
				fmt.Sprintf("%d", s.ProcessCount),
			})
		}
		printTable(cmd.OutOrStdout(), "SERVERS", []string{"", "ID", "NAME", "ADDRESS", "STATUS", "ROLE", "CPU", "MEM", "PROCS"}, rows)
		return nil
	},
}

var serversGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := Client.GetServer(args[0])
		if err != nil {
			return fmt.Errorf("error getting server: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), s); done || err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s (%s)\n", ui.StatusIcon(s.Status), s.Name, s.ID)
		fmt.Fprintf(w, "Address:   %s:%d\n", s.Host, s.Port)
		fmt.Fprintf(w, "Status:    %s\n", s.Status)
		fmt.Fprintf(w, "Role:      %s\n", s.Role)
		fmt.Fprintf(w, "CPU:       %d%%\n", s.CPUUsage)
		fmt.Fprintf(w, "Memory:    %s\n", s.MemoryUsage)
		fmt.Fprintf(w, "Processes: %d\n", s.ProcessCount)
		return nil
	},
}

var newServer sdk.CreateServerRequest

var serversCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a server node",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := Client.CreateServer(newServer)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server %s registered as %s (%s)\n", s.Name, s.ID, s.Status)
		return nil
	},
}

var (
	setName, setHost, setStatus, setRole, setMemory string
	setPort, setCPU                                 int
)

var serversUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change a server's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req sdk.UpdateServerRequest
		flags := cmd.Flags()
		if flags.Changed("name") {
			req.Name = &setName
		}
		if flags.Changed("host") {
			req.Host = &setHost
		}
		if flags.Changed("port") {
			req.Port = &setPort
		}
		if flags.Changed("status") {
			req.Status = &setStatus
		}
		if flags.Changed("role") {
			req.Role = &setRole
		}
		if flags.Changed("cpu") {
			req.CPUUsage = &setCPU
		}
		if flags.Changed("memory") {
			req.MemoryUsage = &setMemory
		}
		s, err := Client.UpdateServer(args[0], req)
		if err != nil {
			return fmt.Errorf("error updating server: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server %s updated (%s, %s)\n", s.ID, s.Status, s.Role)
		return nil
	},
}

var serversDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a server with no processes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Client.DeleteServer(args[0]); err != nil {
			return fmt.Errorf("error deleting server: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Server deleted successfully.")
		return nil
	},
}

func init() {
	f := serversCreateCmd.Flags()
	f.StringVar(&newServer.Name, "name", "", "Server name")
	f.StringVar(&newServer.Host, "host", "localhost", "Agent host")
	f.IntVar(&newServer.Port, "port", 0, "Agent port")
	f.StringVar(&newServer.Status, "status", "", "Initial status (online, offline)")
	f.StringVar(&newServer.Role, "role", "", "Role (primary, secondary)")
	_ = serversCreateCmd.MarkFlagRequired("name")

	u := serversUpdateCmd.Flags()
	u.StringVar(&setName, "name", "", "Server name")
	u.StringVar(&setHost, "host", "", "Agent host")
	u.IntVar(&setPort, "port", 0, "Agent port")
	u.StringVar(&setStatus, "status", "", "Status (online, offline, migrating)")
	u.StringVar(&setRole, "role", "", "Role (primary, secondary)")
	u.IntVar(&setCPU, "cpu", 0, "CPU usage percent")
	u.StringVar(&setMemory, "memory", "", "Memory usage, e.g. 1.5GB")

	serversCmd.AddCommand(serversListCmd, serversGetCmd, serversCreateCmd, serversUpdateCmd, serversDeleteCmd)
	RootCmd.AddCommand(serversCmd)
}
