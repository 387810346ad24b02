// Package catalog keeps an SQLite full-text catalog of company names for the
// viewer's selector and the companies command. It is rebuilt from the loaded
// records and never written back.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/companysim/cosim/internal/company"
	_ "modernc.org/sqlite"
)

// InMemory is the path that opens a private in-memory catalog.
const InMemory = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Entry is one catalog row.
type Entry struct {
	Row               int    `json:"row"`
	Name              string `json:"name"`
	TopLevelCategory  string `json:"top_level_category,omitempty"`
	SecondaryCategory string `json:"secondary_category,omitempty"`
}

// OpenDB opens or creates a catalog at path. Use InMemory for a catalog that
// lives only as long as the process.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// One connection: SQLite doesn't support concurrent writes and an
	// in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS companies (
			row_index INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			top_level_category TEXT,
			secondary_category TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);

		CREATE VIRTUAL TABLE IF NOT EXISTS companies_fts USING fts5(
			row_index UNINDEXED,
			name,
			categories
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the catalog and inserts one row per record, keeping table
// order in the row column. It returns the number of rows written.
func (d *DB) Rebuild(records []company.Record) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM companies"); err != nil {
		return 0, fmt.Errorf("clearing companies table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM companies_fts"); err != nil {
		return 0, fmt.Errorf("clearing companies_fts table: %w", err)
	}

	rowStmt, err := tx.Prepare(`
		INSERT INTO companies (row_index, name, top_level_category, secondary_category)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing companies insert: %w", err)
	}
	defer rowStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO companies_fts (row_index, name, categories)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, r := range records {
		if _, err := rowStmt.Exec(i, r.Name, r.TopLevelCategory, r.SecondaryCategory); err != nil {
			return 0, fmt.Errorf("inserting company %q: %w", r.Name, err)
		}
		categories := strings.TrimSpace(r.TopLevelCategory + " " + r.SecondaryCategory)
		if _, err := ftsStmt.Exec(i, r.Name, categories); err != nil {
			return 0, fmt.Errorf("inserting fts for %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(records), nil
}

// Count returns the number of catalog rows.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM companies").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting companies: %w", err)
	}
	return n, nil
}

// Names returns up to limit unique company names matching query, in table
// order. Every query term is matched as a name prefix, so "acm clo" finds
// "Acme Cloud". An empty query lists names from the start of the table.
func (d *DB) Names(query string, limit int) ([]string, error) {
	ftsQuery := prepareNameQuery(query)

	var (
		rows *sql.Rows
		err  error
	)
	if ftsQuery == "" {
		rows, err = d.db.Query(`
			SELECT name FROM companies
			GROUP BY name
			ORDER BY MIN(row_index)
			LIMIT ?`, limit)
	} else {
		rows, err = d.db.Query(`
			SELECT name FROM companies
			WHERE row_index IN (SELECT row_index FROM companies_fts WHERE companies_fts MATCH ?)
			GROUP BY name
			ORDER BY MIN(row_index)
			LIMIT ?`, "name:"+ftsQuery, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("searching names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Search performs a full-text search over names and categories and returns
// matching entries in table order.
func (d *DB) Search(query string, limit int) ([]Entry, error) {
	ftsQuery := prepareNameQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT row_index, name, top_level_category, secondary_category
		FROM companies
		WHERE row_index IN (SELECT row_index FROM companies_fts WHERE companies_fts MATCH ?)
		ORDER BY row_index
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			top, secd sql.NullString
		)
		if err := rows.Scan(&e.Row, &e.Name, &top, &secd); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.TopLevelCategory = top.String
		e.SecondaryCategory = secd.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// prepareNameQuery turns free text into an FTS5 query where every term is a
// quoted prefix match. Quoting keeps FTS5 operators in names literal.
func prepareNameQuery(query string) string {
	var terms []string
	for _, term := range strings.Fields(query) {
		term = strings.ReplaceAll(term, "\"", "\"\"")
		terms = append(terms, "\""+term+"\"*")
	}
	if len(terms) == 0 {
		return ""
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " ") + ")"
}
