package cmd

import (
	"fmt"
	"os"

	"shuttle/pkg/sdk"

	"github.com/spf13/cobra"
)

var (
	Client  *sdk.Client
	BaseURL string
)

var RootCmd = &cobra.Command{
	Use:           "shuttle-cli",
	Short:         "CLI for the Shuttle migration coordinator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Client = sdk.NewClient(BaseURL)
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&BaseURL, "url", "http://localhost:5000", "URL of the Shuttle coordinator")
}

// Execute runs the CLI against the coordinator on localhost:port unless
// --url says otherwise.
func Execute(port int) {
	def := fmt.Sprintf("http://localhost:%d", port)
	BaseURL = def
	RootCmd.PersistentFlags().Lookup("url").DefValue = def

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
