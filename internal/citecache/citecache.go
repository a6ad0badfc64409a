// Package citecache is a persistent identifier-to-BibTeX cache backed by
// SQLite, so repeated lookups of the same identifier skip the network.
package citecache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Citation is one cached lookup result.
type Citation struct {
	Identifier string
	BibTeX     string
	FetchedAt  time.Time
}

// Cache is the SQLite-backed citation cache.
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the per-user cache database location.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bibfetch", "citations.db"), nil
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS citations (
  identifier TEXT PRIMARY KEY,
  bibtex     TEXT NOT NULL,
  fetched_at TEXT NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached BibTeX for an identifier, if present.
func (c *Cache) Get(id string) (string, bool, error) {
	var bib string
	err := c.db.QueryRow("SELECT bibtex FROM citations WHERE identifier = ?", id).Scan(&bib)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return bib, true, nil
}

// Put stores or replaces the cached BibTeX for an identifier.
func (c *Cache) Put(id, bib string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO citations (identifier, bibtex, fetched_at) VALUES (?, ?, ?)",
		id, bib, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Delete removes one identifier from the cache.
func (c *Cache) Delete(id string) error {
	_, err := c.db.Exec("DELETE FROM citations WHERE identifier = ?", id)
	return err
}

// Clear empties the cache.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM citations")
	return err
}

// List returns all cached citations, oldest first.
func (c *Cache) List() ([]Citation, error) {
	rows, err := c.db.Query("SELECT identifier, bibtex, fetched_at FROM citations ORDER BY fetched_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Citation
	for rows.Next() {
		var cit Citation
		var fetched string
		if err := rows.Scan(&cit.Identifier, &cit.BibTeX, &fetched); err != nil {
			return nil, err
		}
		cit.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
		out = append(out, cit)
	}
	return out, rows.Err()
}
