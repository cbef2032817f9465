// Package cli implements habitctl, the operator tool for streak maintenance.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "habitctl",
	Short:         "Maintenance commands for the habitflow task store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "storage driver override (postgres or sqlite)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "sqlite database path override")

	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(streakCmd)
}
