// Package history persists the outcome of every run in a SQLite database so
// that past runs can be listed and compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ChainRecord is the stored outcome of one chain.
type ChainRecord struct {
	Name  string
	Files []string
	// Err is empty for chains that succeeded.
	Err string
}

// Run is the stored outcome of one run.
type Run struct {
	ID       int64
	Started  time.Time
	Finished time.Time
	// Err is empty for runs that succeeded.
	Err    string
	Chains []ChainRecord
}

// Store is a run history backed by a single SQLite file.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	error       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chains (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	name   TEXT NOT NULL,
	files  BLOB NOT NULL,
	error  TEXT NOT NULL,
	PRIMARY KEY (run_id, name)
);`

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run and its chains in one transaction and returns the new
// run id.
func (s *Store) Record(ctx context.Context, run Run) (retID int64, retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs (started_at, finished_at, error) VALUES (?, ?, ?)`,
		run.Started.UTC().Format(time.RFC3339Nano), run.Finished.UTC().Format(time.RFC3339Nano), run.Err)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, c := range run.Chains {
		files, err := json.Marshal(c.Files)
		if err != nil {
			return 0, fmt.Errorf("encode files of chain '%s': %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chains (run_id, name, files, error) VALUES (?, ?, ?, ?)`,
			id, c.Name, files, c.Err); err != nil {
			return 0, fmt.Errorf("insert chain '%s': %w", c.Name, err)
		}
	}
	return id, tx.Commit()
}

// Runs returns up to limit runs, newest first, with their chains in name
// order.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, error FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Err); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		if r.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	for i := range runs {
		if runs[i].Chains, err = s.chains(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) chains(ctx context.Context, runID int64) ([]ChainRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, files, error FROM chains WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("select chains: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ChainRecord
	for rows.Next() {
		var c ChainRecord
		var files []byte
		if err := rows.Scan(&c.Name, &files, &c.Err); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		if err := json.Unmarshal(files, &c.Files); err != nil {
			return nil, fmt.Errorf("decode files of chain '%s': %w", c.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
