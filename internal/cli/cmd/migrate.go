package cmd

import (
	"fmt"
	"time"

	"shuttle/internal/cli/ui"
	"shuttle/pkg/sdk"

	"github.com/spf13/cobra"
)

var (
	migrateTo, migrateFrom string
	migrateWait            bool
	migrateWaitTimeout     time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [process]",
	Short: "Move a process to another server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := Client.InitiateMigration(sdk.InitiateMigrationRequest{
			ProcessID:      args[0],
			SourceServerID: migrateFrom,
			TargetServerID: migrateTo,
		})
		if err != nil {
			return fmt.Errorf("error initiating migration: %w", err)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Migration %s started: %s %s -> %s\n", m.ID, m.ProcessID, m.SourceServerID, m.TargetServerID)
		if !migrateWait {
			return nil
		}

		deadline := time.Now().Add(migrateWaitTimeout)
		for {
			got, err := Client.GetMigration(m.ID)
			if err != nil {
				return fmt.Errorf("error following migration: %w", err)
			}
			switch got.Status {
			case "completed":
				fmt.Fprintf(w, "Migration completed: %s is on %s\n", got.ProcessID, ui.ServerLabel(got.TargetServer, got.TargetServerID))
				return nil
			case "failed":
				return fmt.Errorf("migration failed: %s", ui.Deref(got.ErrorMessage, "unknown error"))
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("migration %s still %s after %s", m.ID, got.Status, migrateWaitTimeout)
			}
			time.Sleep(250 * time.Millisecond)
		}
	},
}

var migrationsCmd = &cobra.Command{
	Use:     "migrations",
	Aliases: []string{"migration"},
	Short:   "Inspect migration history",
}

var migrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List migrations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := Client.ListMigrations()
		if err != nil {
			return fmt.Errorf("error listing migrations: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), migrations); done || err != nil {
			return err
		}
		now := time.Now()
		rows := make([][]string, 0, len(migrations))
		for _, m := range migrations {
			rows = append(rows, []string{
				ui.StatusIcon(m.Status),
				m.ID,
				m.ProcessID,
				ui.ServerLabel(m.SourceServer, m.SourceServerID),
				ui.ServerLabel(m.TargetServer, m.TargetServerID),
				m.Status,
				ui.Since(m.StartedAt, now),
				ui.Deref(m.ErrorMessage, ""),
			})
		}
		printTable(cmd.OutOrStdout(), "MIGRATIONS", []string{"", "ID", "PROCESS", "FROM", "TO", "STATUS", "STARTED", "ERROR"}, rows)
		return nil
	},
}

var migrationsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := Client.GetMigration(args[0])
		if err != nil {
			return fmt.Errorf("error getting migration: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), m); done || err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s Migration %s\n", ui.StatusIcon(m.Status), m.ID)
		fmt.Fprintf(w, "Process: %s\n", m.ProcessID)
		fmt.Fprintf(w, "From:    %s\n", ui.ServerLabel(m.SourceServer, m.SourceServerID))
		fmt.Fprintf(w, "To:      %s\n", ui.ServerLabel(m.TargetServer, m.TargetServerID))
		fmt.Fprintf(w, "Status:  %s\n", m.Status)
		fmt.Fprintf(w, "Started: %s\n", m.StartedAt.Local().Format(time.RFC3339))
		if m.CompletedAt != nil {
			fmt.Fprintf(w, "Ended:   %s\n", m.CompletedAt.Local().Format(time.RFC3339))
		}
		if m.ErrorMessage != nil {
			fmt.Fprintf(w, "Error:   %s\n", *m.ErrorMessage)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "Target server id")
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "Source server id, defaults to the process's server")
	migrateCmd.Flags().BoolVar(&migrateWait, "wait", false, "Wait for the migration to finish")
	migrateCmd.Flags().DurationVar(&migrateWaitTimeout, "wait-timeout", time.Minute, "How long --wait waits")
	_ = migrateCmd.MarkFlagRequired("to")

	migrationsCmd.AddCommand(migrationsListCmd, migrationsGetCmd)
	RootCmd.AddCommand(migrateCmd, migrationsCmd)
}
