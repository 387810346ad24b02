package main

import (
	"context"
	"fmt"

	"github.com/companysim/cosim/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	companiesLimit      int
	companiesCategories bool
)

func init() {
	rootCmd.AddCommand(companiesCmd)

	companiesCmd.Flags().IntVarP(&companiesLimit, "limit", "l", DefaultCompanyLimit, "Maximum number of results")
	companiesCmd.Flags().BoolVar(&companiesCategories, "categories", false, "Match categories as well as names and include them in the output")
}

// CompaniesResponse is the response for the companies command.
type CompaniesResponse struct {
	Query   string          `json:"query,omitempty"`
	Total   int             `json:"total"`
	Names   []string        `json:"names,omitempty"`
	Entries []catalog.Entry `json:"entries,omitempty"`
}

var companiesCmd = &cobra.Command{
	Use:   "companies [prefix]",
	Short: "List or search company names",
	Long: `List company names in table order, or those matching a prefix.

Each word of the prefix must start a word of the name. With --categories the
search also covers the top-level and secondary categories.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompanies,
}

func runCompanies(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}
	if companiesLimit < 1 {
		exitWithError(ExitError, "--limit must be positive, got %d", companiesLimit)
	}
	if companiesCategories && query == "" {
		exitWithError(ExitError, "--categories requires a search term")
	}

	svc, cfg, log := mustLoadService(context.Background())
	db := mustOpenCatalog(cfg, svc, log)
	defer db.Close()

	if companiesCategories {
		entries, err := db.Search(query, companiesLimit)
		if err != nil {
			exitWithError(ExitError, "searching companies: %v", err)
		}
		if humanOutput {
			for _, e := range entries {
				fmt.Printf("%s\n   %s\n", e.Name, formatCategories(e.TopLevelCategory, e.SecondaryCategory))
			}
			fmt.Printf("\n%d companies\n", len(entries))
			return nil
		}
		return outputJSON(CompaniesResponse{Query: query, Total: len(entries), Entries: entries})
	}

	names, err := db.Names(query, companiesLimit)
	if err != nil {
		exitWithError(ExitError, "searching companies: %v", err)
	}
	if humanOutput {
		for _, n := range names {
			fmt.Println(n)
		}
		fmt.Printf("\n%d companies\n", len(names))
		return nil
	}
	if names == nil {
		names = []string{}
	}
	return outputJSON(CompaniesResponse{Query: query, Total: len(names), Names: names})
}
