package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"shuttle/internal/cli/ui"
	"shuttle/pkg/sdk"

	"github.com/spf13/cobra"
)

var (
	logsLimit  int
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show coordinator logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if logsFollow {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return Client.FollowLogs(ctx, func(e sdk.LogEntry) {
				fmt.Fprintln(w, ui.FormatEntry(e))
			})
		}

		logs, err := Client.Logs(logsLimit)
		if err != nil {
			return fmt.Errorf("error getting logs: %w", err)
		}
		if done, err := emit(w, logs); done || err != nil {
			return err
		}
		// Newest first from the API, printed oldest first like a tail.
		for i := len(logs) - 1; i >= 0; i-- {
			fmt.Fprintln(w, ui.FormatEntry(logs[i]))
		}
		return nil
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the coordinator log buffer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Client.ClearLogs(); err != nil {
			return fmt.Errorf("error clearing logs: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logs cleared.")
		return nil
	},
}

var logsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Follow logs in a full screen viewer",
	Run: func(cmd *cobra.Command, args []string) {
		ui.RunLogs(Client)
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 0, "Number of entries, 0 for the server default")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new entries as they arrive")
	logsCmd.AddCommand(logsClearCmd, logsViewCmd)
	RootCmd.AddCommand(logsCmd)
}
