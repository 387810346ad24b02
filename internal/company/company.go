// Package company defines the company record type and its JSONL table format.
package company

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one company of the records table.
// Records are row-aligned with the reduced feature matrix: the i-th record
// owns the i-th matrix row.
type Record struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	TopLevelCategory  string        `json:"top_level_category"`
	SecondaryCategory string        `json:"secondary_category"`
	EmployeeCount     EmployeeCount `json:"employee_count"`
}

// EmployeeCount holds the employee count as it appeared in the source table.
// The upstream pipeline emits either a number, a string ("51-200") or null.
type EmployeeCount string

// UnmarshalJSON accepts a JSON number, string, or null.
func (e *EmployeeCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding employee count: %w", err)
		}
		*e = EmployeeCount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding employee count: %w", err)
	}
	*e = EmployeeCount(formatNumber(n))
	return nil
}

// formatNumber drops a redundant ".0" so 250.0 displays as 250.
func formatNumber(n json.Number) string {
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// String returns the count for display, or "N/A" when unknown.
func (e EmployeeCount) String() string {
	if e == "" {
		return "N/A"
	}
	return string(e)
}

// UniqueNames returns the record names in table order with duplicates removed.
func UniqueNames(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	names := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}
	return names
}
