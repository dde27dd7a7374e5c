package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flightsw/fswparse/internal/ctype"
	"github.com/flightsw/fswparse/internal/dictionary"
)

// Section names used in the functions table.
const (
	SectionCommands  = "commands"
	SectionTelemetry = "telemetry"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunInput describes the request a run was produced from.
type RunInput struct {
	CommandFile      string
	TelemetryFile    string
	CommandKeyword   string
	TelemetryKeyword string
}

// InputFromRequest converts a dictionary request to a RunInput.
func InputFromRequest(req dictionary.Request) RunInput {
	return RunInput{
		CommandFile:      req.CommandFile,
		TelemetryFile:    req.TelemetryFile,
		CommandKeyword:   req.CommandKeyword,
		TelemetryKeyword: req.TelemetryKeyword,
	}
}

// Request converts the input back to a dictionary request.
func (in RunInput) Request() dictionary.Request {
	return dictionary.Request{
		CommandFile:      in.CommandFile,
		TelemetryFile:    in.TelemetryFile,
		CommandKeyword:   in.CommandKeyword,
		TelemetryKeyword: in.TelemetryKeyword,
	}
}

// Run is a saved extraction.
type Run struct {
	ID               int64     `json:"id" yaml:"id"`
	CommandFile      string    `json:"command_file" yaml:"command_file"`
	TelemetryFile    string    `json:"telemetry_file" yaml:"telemetry_file"`
	CommandKeyword   string    `json:"command_keyword" yaml:"command_keyword"`
	TelemetryKeyword string    `json:"telemetry_keyword" yaml:"telemetry_keyword"`
	CommandHash      string    `json:"command_hash,omitempty" yaml:"command_hash,omitempty"`
	TelemetryHash    string    `json:"telemetry_hash,omitempty" yaml:"telemetry_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	Commands         int       `json:"commands" yaml:"commands"`
	Telemetry        int       `json:"telemetry" yaml:"telemetry"`
}

// Input returns the inputs the run was produced from.
func (r *Run) Input() RunInput {
	return RunInput{
		CommandFile:      r.CommandFile,
		TelemetryFile:    r.TelemetryFile,
		CommandKeyword:   r.CommandKeyword,
		TelemetryKeyword: r.TelemetryKeyword,
	}
}

// SaveRun stores a run and its functions in a single transaction and
// returns the new run id. Source files that can no longer be read are
// recorded with an empty hash.
func (s *Store) SaveRun(in RunInput, result *dictionary.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("save run: nil result")
	}

	cmdHash, _ := HashFile(in.CommandFile)
	tlmHash, _ := HashFile(in.TelemetryFile)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (command_file, telemetry_file, command_keyword, telemetry_keyword,
			command_hash, telemetry_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.CommandFile, in.TelemetryFile, in.CommandKeyword, in.TelemetryKeyword,
		cmdHash, tlmHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO functions (run_id, section, position, name, document)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	sections := []struct {
		name string
		fns  []ctype.Function
	}{
		{SectionCommands, result.Commands},
		{SectionTelemetry, result.Telemetry},
	}
	for _, sec := range sections {
		for i, fn := range sec.fns {
			doc, err := json.Marshal(fn)
			if err != nil {
				return 0, fmt.Errorf("encode %s: %w", fn.Name, err)
			}
			if _, err := stmt.Exec(id, sec.name, i, fn.Name, string(doc)); err != nil {
				return 0, fmt.Errorf("insert function %s: %w", fn.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

const runColumns = `
	r.id, r.command_file, r.telemetry_file, r.command_keyword, r.telemetry_keyword,
	r.command_hash, r.telemetry_hash, r.created_at,
	(SELECT COUNT(*) FROM functions f WHERE f.run_id = r.id AND f.section = 'commands'),
	(SELECT COUNT(*) FROM functions f WHERE f.run_id = r.id AND f.section = 'telemetry')`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt string
	err := row.Scan(&run.ID, &run.CommandFile, &run.TelemetryFile, &run.CommandKeyword,
		&run.TelemetryKeyword, &run.CommandHash, &run.TelemetryHash, &createdAt,
		&run.Commands, &run.Telemetry)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs r ORDER BY r.id DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run metadata for id.
func (s *Store) GetRun(id int64) (*Run, error) {
	run, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return run, nil
}

// LoadRun returns a run and its decoded dictionary.
func (s *Store) LoadRun(id int64) (*Run, *dictionary.Result, error) {
	run, err := s.GetRun(id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`
		SELECT section, name, document FROM functions
		WHERE run_id = ? ORDER BY section, position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load functions: %w", err)
	}
	defer rows.Close()

	result := &dictionary.Result{Commands: []ctype.Function{}, Telemetry: []ctype.Function{}}
	for rows.Next() {
		var section, name, doc string
		if err := rows.Scan(&section, &name, &doc); err != nil {
			return nil, nil, fmt.Errorf("scan function: %w", err)
		}
		var fn ctype.Function
		if err := json.Unmarshal([]byte(doc), &fn); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", name, err)
		}
		switch section {
		case SectionCommands:
			result.Commands = append(result.Commands, fn)
		case SectionTelemetry:
			result.Telemetry = append(result.Telemetry, fn)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return run, result, nil
}

// DeleteRun removes a run and its functions.
func (s *Store) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM functions WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete functions: %w", err)
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}

	return tx.Commit()
}
