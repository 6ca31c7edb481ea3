// Package cmd implements the burrow CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "query router and launcher core",
	Long: `burrow - query routing, ranking, and dispatch for a quick launcher
  - type to search apps, files, and indexed content
  - prefixes pick the provider: "?" chat, "!" vault, ":" settings, "#" macros`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
