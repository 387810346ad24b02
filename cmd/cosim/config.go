package main

import (
	"fmt"

	"github.com/companysim/cosim/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: fmt.Sprintf(`Show the configuration after the config file, .env and %s* overrides
are applied. Credentials are masked.

Config file: %s`, config.EnvPrefix, config.Path()),
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig().Redacted()

	if humanOutput {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		fmt.Print(string(out))
		return nil
	}
	return outputJSON(cfg)
}
