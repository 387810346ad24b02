package main

import (
	"fmt"
	"strings"

	"github.com/companysim/cosim/internal/missing"
	"github.com/spf13/cobra"
)

var (
	missingAll bool
)

func init() {
	rootCmd.AddCommand(missingCmd)

	missingCmd.Flags().BoolVar(&missingAll, "all", false, "Include columns with no missing values")
}

var missingCmd = &cobra.Command{
	Use:   "missing [file]",
	Short: "Count missing values per column of the raw data",
	Long: `Count missing values per column of the raw company spreadsheet (.xlsx or .csv).

The file defaults to raw_data from the config. A cell is missing when it is
empty, is a common NA token such as "NA", "null" or "#N/A", or equals one of
na_values. Cells are compared exactly, so whitespace-only cells are values.
By default only columns with at least one missing value are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMissing,
}

func runMissing(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := cfg.RawData
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		exitWithError(ExitConfigError, "no raw data file: pass one or set raw_data in the config")
	}

	report, err := missing.ReadFile(path, cfg.NAValues)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if !missingAll {
		report.Columns = report.WithMissing()
	}
	if report.Columns == nil {
		report.Columns = []missing.Column{}
	}

	if humanOutput {
		printMissingHuman(report)
		return nil
	}
	return outputJSON(report)
}

func printMissingHuman(r missing.Report) {
	fmt.Printf("%s: %d rows\n\n", r.Source, r.Rows)
	if len(r.Columns) == 0 {
		fmt.Println("No missing values.")
		return
	}

	width := 0
	for _, c := range r.Columns {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}
	most := r.MaxMissing()
	for _, c := range r.Columns {
		bar := 0
		if most > 0 {
			bar = c.Missing * 40 / most
		}
		fmt.Printf("%-*s %6d %s\n", width, c.Name, c.Missing, strings.Repeat("#", bar))
	}
}
