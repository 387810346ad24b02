package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryTopN int
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntVarP(&queryTopN, "top", "n", 0, "Number of results (default: config default_top_n)")
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find companies matching free-text",
	Long: `Vectorize free text with the fitted vocabulary and find the nearest companies.

Words outside the vocabulary are ignored. Text with no known words is an error.

Examples:
  cosim query "cloud data warehouse"
  cosim query -n 3 "payment processing" --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	svc, cfg, _ := mustLoadService(context.Background())

	topN := queryTopN
	if topN == 0 {
		topN = cfg.DefaultTopN
	}

	matches, err := svc.QueryText(text, topN)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Top %d companies matching '%s':\n\n", len(matches), text)
		printMatchesHuman(matches)
		return nil
	}
	return outputJSON(SimilarResponse{
		Query:   text,
		Similar: matches,
		Total:   len(matches),
		Metric:  string(svc.Metric()),
	})
}
