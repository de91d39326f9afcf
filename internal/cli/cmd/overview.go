package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show fleet totals and the migration success rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ov, err := Client.Overview()
		if err != nil {
			return fmt.Errorf("error getting overview: %w", err)
		}
		if done, err := emit(cmd.OutOrStdout(), ov); done || err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, sectionStyle.Render("OVERVIEW"))
		fmt.Fprintf(w, "Processes:         %d\n", ov.TotalProcesses)
		fmt.Fprintf(w, "Active migrations: %d\n", ov.ActiveMigrations)
		fmt.Fprintf(w, "Online nodes:      %d\n", ov.ServerNodes)
		fmt.Fprintf(w, "Success rate:      %s\n", ov.SuccessRate)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the coordinator is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := Client.Health()
		if err != nil {
			return fmt.Errorf("coordinator unreachable: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", h.Status, h.Timestamp)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(overviewCmd, healthCmd)
}
