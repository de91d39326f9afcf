package cmd

import (
	"shuttle/internal/cli/ui"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

func RunDashboard() {
	for {
		if ui.RunDashboard(Client) != ui.ActionLogs {
			return
		}
		if back := ui.RunLogs(Client); !back {
			return
		}
	}
}
