package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mon-launch",
	Short: "A CLI for packing and submitting bonding-curve token launches",
	Long: `mon-launch assembles and submits token-launch transactions against a
bonding-curve launchpad: it uploads the logo and metadata, mines a
deterministic deployment salt, reads live fee and quote data, packs the exact
creation payload and submits it through the configured wallet.

Examples:
  mon-launch builder start my-concept --title "Moon Cat" --symbol MCAT
  mon-launch builder next my-concept
  mon-launch launch my-concept --initial-buy 0.1
  mon-launch status 0xabc...def
  mon-launch relay`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
