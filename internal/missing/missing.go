// Package missing counts missing values per column of the raw company
// spreadsheet.
package missing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoHeader          = errors.New("spreadsheet has no header row")
	ErrNoSheets          = errors.New("workbook has no sheets")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// Column is the missing-value count of one column.
type Column struct {
	Name    string `json:"name"`
	Missing int    `json:"missing"`
}

// Report holds per-column counts in header order.
type Report struct {
	Source  string   `json:"source,omitempty"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// WithMissing returns only the columns with at least one missing value.
func (r Report) WithMissing() []Column {
	var out []Column
	for _, c := range r.Columns {
		if c.Missing > 0 {
			out = append(out, c)
		}
	}
	return out
}

// MaxMissing returns the largest column count.
func (r Report) MaxMissing() int {
	most := 0
	for _, c := range r.Columns {
		if c.Missing > most {
			most = c.Missing
		}
	}
	return most
}

// DefaultNAValues are always treated as missing, in addition to the
// configured values. They match the tokens pandas recognizes by default, so
// Excel error cells such as "#N/A" are counted.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Count builds a report from rows whose first row is the header. A cell is
// missing when it exactly equals one of DefaultNAValues or naValues; cells
// absent from a short row are missing too. Cells are not trimmed, so a
// whitespace-only cell is a value.
func Count(rows [][]string, naValues []string) (Report, error) {
	if len(rows) == 0 {
		return Report{}, ErrNoHeader
	}

	na := make(map[string]bool, len(DefaultNAValues)+len(naValues))
	for _, v := range DefaultNAValues {
		na[v] = true
	}
	for _, v := range naValues {
		na[v] = true
	}

	header := rows[0]
	report := Report{
		Rows:    len(rows) - 1,
		Columns: make([]Column, len(header)),
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		report.Columns[i].Name = name
	}

	for _, row := range rows[1:] {
		for i := range report.Columns {
			if i >= len(row) {
				report.Columns[i].Missing++
				continue
			}
			if na[row[i]] {
				report.Columns[i].Missing++
			}
		}
	}

	return report, nil
}

// ReadFile reads an .xlsx or .csv spreadsheet and counts its missing values.
func ReadFile(path string, naValues []string) (Report, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = ReadXLSX(path)
	case ".csv":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return Report{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		rows, err = ReadCSV(f)
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Report{}, err
	}

	report, err := Count(rows, naValues)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	report.Source = path
	return report, nil
}

// ReadXLSX returns the cell values of the workbook's first sheet.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadCSV returns all records of a CSV stream. Rows may have differing
// lengths.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return rows, nil
}
