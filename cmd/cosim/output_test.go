package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/companysim/cosim/internal/artifact"
	"github.com/companysim/cosim/internal/config"
	"github.com/companysim/cosim/internal/similarity"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer description", 10, "a longe..."},
		{"Zürich Überweisungen", 9, "Zürich..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("fits", 10, "  "); got != "fits" {
		t.Errorf("wrapText() = %q, want unchanged", got)
	}

	got := wrapText("cloud data platform for analytics teams", 16, "   ")
	want := "cloud data\n   platform for\n   analytics teams"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
	for _, line := range strings.Split(got, "\n") {
		if len(strings.TrimPrefix(line, "   ")) > 16 {
			t.Errorf("line %q exceeds width", line)
		}
	}
}

func TestFormatCategories(t *testing.T) {
	tests := []struct {
		top, secondary, want string
	}{
		{"Software", "Data", "Software / Data"},
		{"Software", "", "Software"},
		{"", "Data", "Data"},
		{"", "", "(uncategorized)"},
	}
	for _, tt := range tests {
		if got := formatCategories(tt.top, tt.secondary); got != tt.want {
			t.Errorf("formatCategories(%q, %q) = %q, want %q", tt.top, tt.secondary, got, tt.want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{fmt.Errorf("%w: %q", similarity.ErrCompanyNotFound, "Nope Inc"), ExitNotFound},
		{fmt.Errorf("%w: max_top_n", config.ErrInvalid), ExitConfigError},
		{fmt.Errorf("records.json: %w", artifact.ErrNotFound), ExitDataError},
		{artifact.ErrMisaligned, ExitDataError},
		{artifact.ErrUnsupportedVersion, ExitDataError},
		{similarity.ErrTopNOutOfRange, ExitError},
		{fmt.Errorf("boom"), ExitError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
