package company

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MaxLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxLineCapacity = 1024 * 1024

// Read decodes a records table from JSONL. Blank lines are skipped; every
// other line must be one JSON object.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)

	// Descriptions can be long
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("line %d: record has no name", lineNum)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	return records, nil
}

// Write encodes records as JSONL, one record per line.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record %q: %w", rec.Name, err)
		}
	}
	return bw.Flush()
}
