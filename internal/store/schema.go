package store

// schemaSQL defines the SQLite schema for the run history.
// Tables:
//   - runs: one row per saved extraction with its inputs and source hashes
//   - functions: the serialized function descriptors of a run, in output order
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    command_file TEXT NOT NULL,
    telemetry_file TEXT NOT NULL,
    command_keyword TEXT NOT NULL DEFAULT '',
    telemetry_keyword TEXT NOT NULL DEFAULT '',
    command_hash TEXT NOT NULL DEFAULT '',
    telemetry_hash TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS functions (
    run_id INTEGER NOT NULL,
    section TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    document TEXT NOT NULL,
    PRIMARY KEY (run_id, section, position)
);

CREATE INDEX IF NOT EXISTS idx_functions_name ON functions(name);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
