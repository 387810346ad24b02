package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	similarTopN int
)

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarTopN, "top", "n", 0, "Number of results (default: config default_top_n)")
}

var similarCmd = &cobra.Command{
	Use:   "similar <company-name>",
	Short: "Find companies similar to a given company",
	Long: `Find the companies whose descriptions are nearest to the given company.

The name must match a company exactly. The company itself counts towards
the result count and is normally listed first with a score of 1.

Exit codes:
  0  Success
  2  Configuration error
  3  Artifacts missing or malformed
  4  Company not found`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, cfg, _ := mustLoadService(context.Background())

	topN := similarTopN
	if topN == 0 {
		topN = cfg.DefaultTopN
	}

	matches, err := svc.FindSimilar(name, topN)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Top %d similar companies to '%s':\n\n", len(matches), name)
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(SimilarResponse{
		Source:  name,
		Similar: matches,
		Total:   len(matches),
		Metric:  string(svc.Metric()),
	})
}
