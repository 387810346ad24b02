package catalog

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/companysim/cosim/internal/company"
	"github.com/companysim/cosim/internal/testutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(InMemory)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Rebuild(testutil.Companies()); err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	return db
}

func TestRebuild_Count(t *testing.T) {
	db := setupTestDB(t)

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}

	// rebuilding replaces the previous contents
	if _, err := db.Rebuild(testutil.Companies()[:2]); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n, _ := db.Count(); n != 2 {
		t.Errorf("Count() after rebuild = %d, want 2", n)
	}
}

func TestNames(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"empty query lists in order", "", 10, []string{"Acme Cloud", "Beta Data", "Cyber Shield", "Delta Pay"}},
		{"limit applies", "", 2, []string{"Acme Cloud", "Beta Data"}},
		{"prefix", "acm", 10, []string{"Acme Cloud"}},
		{"case insensitive", "DATA", 10, []string{"Beta Data"}},
		{"all terms must match", "cyber sh", 10, []string{"Cyber Shield"}},
		{"categories are not names", "fintech", 10, nil},
		{"fts operators stay literal", "acme OR delta", 10, nil},
		{"no match", "zzz", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Names(tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Names(%q) error = %v", tt.query, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestNames_Deduplicates(t *testing.T) {
	db, err := OpenDB(InMemory)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	records := []company.Record{
		{Name: "Acme Cloud"},
		{Name: "Beta Data"},
		{Name: "Acme Cloud"},
	}
	if _, err := db.Rebuild(records); err != nil {
		t.Fatal(err)
	}

	got, err := db.Names("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"Acme Cloud", "Beta Data"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestSearch_Categories(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Search("software", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Search(software) returned %d entries, want 3", len(got))
	}
	if got[2].Row != 2 || got[2].Name != "Cyber Shield" || got[2].SecondaryCategory != "Security" {
		t.Errorf("unexpected entry: %+v", got[2])
	}

	got, err = db.Search("payments", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Delta Pay" {
		t.Errorf("Search(payments) = %+v", got)
	}

	if got, _ := db.Search("   ", 10); got != nil {
		t.Errorf("blank search should return nothing, got %+v", got)
	}
}

func TestOpenDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	if _, err := db.Rebuild(testutil.Companies()); err != nil {
		t.Fatal(err)
	}
	db.Close()

	// schema creation is idempotent and data survives reopening
	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if n, _ := db.Count(); n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}

func TestPrepareNameQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  ", ""},
		{"acme", `"acme"*`},
		{"acme cloud", `("acme"* "cloud"*)`},
		{`a"b`, `"a""b"*`},
	}
	for _, tt := range tests {
		if got := prepareNameQuery(tt.in); got != tt.want {
			t.Errorf("prepareNameQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
