// Package cmd contains the lspctl CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:          "lspctl",
	Short:        "Drive a language server through the lspclient runtime",
	Long:         `lspctl is a thin demo CLI that opens a workspace, spawns a language server through lspclient's fallback chain, and issues a handful of requests against it.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./lspclient.yaml or ~/.config/lspclient/lspclient.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(hoverCmd)
	rootCmd.AddCommand(symbolsCmd)
}
