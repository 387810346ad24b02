package company

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEmployeeCount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EmployeeCount
	}{
		{name: "integer", input: `250`, want: "250"},
		{name: "float with zero fraction", input: `250.0`, want: "250"},
		{name: "fractional", input: `12.5`, want: "12.5"},
		{name: "string range", input: `"51-200"`, want: "51-200"},
		{name: "null", input: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got EmployeeCount
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmployeeCount_String(t *testing.T) {
	if got := EmployeeCount("").String(); got != "N/A" {
		t.Errorf("empty count String() = %q, want N/A", got)
	}
	if got := EmployeeCount("42").String(); got != "42" {
		t.Errorf("String() = %q, want 42", got)
	}
}

func TestRead(t *testing.T) {
	input := `{"name":"Acme","description":"Rockets","top_level_category":"Industrial","secondary_category":"Aerospace","employee_count":120}

{"name":"Globex","description":"Everything","top_level_category":"Conglomerate","secondary_category":"","employee_count":null}
`
	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Name != "Acme" || records[0].EmployeeCount != "120" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].EmployeeCount.String() != "N/A" {
		t.Errorf("expected N/A employee count, got %q", records[1].EmployeeCount)
	}
}

func TestRead_Errors(t *testing.T) {
	t.Run("malformed line", func(t *testing.T) {
		_, err := Read(strings.NewReader("{\"name\":\"A\"}\n{not json}\n"))
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Errorf("expected line 2 parse error, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := Read(strings.NewReader(`{"description":"nameless"}`))
		if err == nil {
			t.Error("expected error for record without name")
		}
	})
}

func TestWriteAndRead(t *testing.T) {
	records := []Record{
		{Name: "A", Description: "first", EmployeeCount: "10"},
		{Name: "B", Description: "second"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 || got[0] != records[0] || got[1] != records[1] {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestUniqueNames(t *testing.T) {
	records := []Record{{Name: "B"}, {Name: "A"}, {Name: "B"}, {Name: "C"}}

	got := UniqueNames(records)
	want := []string{"B", "A", "C"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("UniqueNames = %v, want %v", got, want)
	}
}
