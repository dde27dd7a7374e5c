// Package store provides SQLite-backed history of dictionary extraction runs.
// The database lives in .fswparse/dictionary.db and keeps, for every saved
// run, its inputs, the hashes of the source files it read and the extracted
// function descriptors.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBFileName is the database file created by Open.
const DBFileName = "dictionary.db"

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the store database in dir, creating dir if needed.
func Open(dir string) (*Store, error) {
	return OpenFile(filepath.Join(dir, DBFileName))
}

// OpenFile opens or creates the store database at path.
// It initializes the schema if the database is new.
func OpenFile(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	store := &Store{db: db, dbPath: path}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Stats summarizes the store contents.
type Stats struct {
	Runs      int64 `json:"runs" yaml:"runs"`
	Functions int64 `json:"functions" yaml:"functions"`
}

// Stats returns statistics about the store contents.
func (s *Store) Stats() (*Stats, error) {
	var stats Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM functions").Scan(&stats.Functions); err != nil {
		return nil, fmt.Errorf("count functions: %w", err)
	}

	return &stats, nil
}
