package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/companysim/cosim/internal/similarity"
)

// Constants for output formatting.
const (
	DefaultCompanyLimit  = 50 // Default limit for the companies command
	DescriptionMaxLen    = 240
	DescriptionWrapWidth = 72
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SimilarResponse is the response for the similar and query commands.
type SimilarResponse struct {
	Source  string             `json:"source,omitempty"`
	Query   string             `json:"query,omitempty"`
	Similar []similarity.Match `json:"similar"`
	Total   int                `json:"total"`
	Metric  string             `json:"metric"`
}

// printMatchesHuman prints lookup results in human-readable format.
func printMatchesHuman(matches []similarity.Match) {
	for i, m := range matches {
		fmt.Printf("%d. [%.4f] %s\n", i+1, m.Score, m.Name)
		fmt.Printf("   %s\n", formatCategories(m.TopLevelCategory, m.SecondaryCategory))
		fmt.Printf("   Employees: %s\n", m.EmployeeCount)
		if m.Description != "" {
			fmt.Printf("   %s\n", wrapText(truncateString(m.Description, DescriptionMaxLen), DescriptionWrapWidth, "   "))
		}
		fmt.Println()
	}
}

// formatCategories joins the two category levels as "Top / Secondary".
func formatCategories(top, secondary string) string {
	switch {
	case top == "" && secondary == "":
		return "(uncategorized)"
	case secondary == "":
		return top
	case top == "":
		return secondary
	default:
		return top + " / " + secondary
	}
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}
