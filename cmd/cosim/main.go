// Package main provides the cosim CLI entry point.
package main

import (
	"os"

	"github.com/companysim/cosim/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// configPath overrides the default config file location
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cosim",
	Short: "Find companies with similar descriptions",
	Long: `cosim looks up the companies most similar to a given one using
precomputed TF-IDF, dimensionality-reduction and nearest-neighbor artifacts.

It serves a single-page viewer with a JSON API ('cosim serve') and answers
the same lookups from the command line. All commands output JSON by default;
pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// .env values never override variables already set in the environment.
	config.LoadDotEnv()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/cosim/config.yml)")
	rootCmd.Version = Version
}
