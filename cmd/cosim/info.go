package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a summary of the loaded artifacts",
	Long: `Load every artifact and print its source, version, record count,
dimensions, metric and vocabulary size. Useful to check that a set of
artifacts is complete and row-aligned before serving it.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	svc, _, _ := mustLoadService(context.Background())
	info := svc.Info()

	if humanOutput {
		fmt.Printf("Source:      %s\n", info.Source)
		fmt.Printf("Version:     %d\n", info.Version)
		fmt.Printf("Companies:   %d (%d unique names)\n", info.Records, len(svc.Companies()))
		fmt.Printf("Dimensions:  %d\n", info.Dimensions)
		fmt.Printf("Metric:      %s\n", info.Metric)
		if info.Algorithm != "" {
			fmt.Printf("Algorithm:   %s\n", info.Algorithm)
		}
		fmt.Printf("Vocabulary:  %d terms\n", info.VocabularySize)
		fmt.Printf("Loaded in:   %s\n", info.LoadDuration)
		return nil
	}
	return outputJSON(info)
}
