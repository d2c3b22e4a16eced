// Package cmd implements the CLI commands for the zara-stock-tracker server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zara-stock-tracker",
	Short: "Monitor Zara products for size availability",
	Long: "A service that polls Zara's storefront API for tracked product/size pairs, " +
		"records stock and price changes in SQLite, and sends an alert the moment " +
		"a watched size comes back in stock.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
