package cmd

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "Preview worker for ChartSmith",
		Long:  `Worker that streams chat responses and applies patch previews for ChartSmith workspaces`,
	}

	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(IntegrationCmd())
	rootCmd.AddCommand(ConsoleCmd())

	return rootCmd
}
