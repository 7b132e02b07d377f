package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
	"github.com/cognicore/lmclass/pkg/lmclass/store"
)

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS datasets (
	name TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	dataset TEXT NOT NULL,
	position INTEGER NOT NULL,
	label TEXT NOT NULL,
	tokens TEXT NOT NULL,
	PRIMARY KEY(dataset, position),
	FOREIGN KEY(dataset) REFERENCES datasets(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	dataset TEXT,
	mode TEXT NOT NULL,
	labels TEXT NOT NULL,
	contingency TEXT NOT NULL,
	correct INTEGER NOT NULL,
	total INTEGER NOT NULL,
	accuracy REAL NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveDataset replaces the named dataset inside a single transaction
func (s *sqliteStore) SaveDataset(ctx context.Context, name string, docs []lm.Document) error {
	if name == "" {
		return fmt.Errorf("dataset name: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE dataset=?`, name); err != nil {
		return err
	}
	const upsert = `
INSERT INTO datasets (name, created_at) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET created_at=excluded.created_at`
	if _, err := tx.ExecContext(ctx, upsert, name, time.Now().UTC().Format(timeLayout)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (dataset, position, label, tokens) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range docs {
		tokens := d.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		encoded, err := json.Marshal(tokens)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, i, d.Label, string(encoded)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadDataset returns the named dataset in the order it was saved
func (s *sqliteStore) LoadDataset(ctx context.Context, name string) ([]lm.Document, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE name=?`, name).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("dataset %q: %w", name, internalerr.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT label, tokens FROM documents WHERE dataset=? ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []lm.Document
	for rows.Next() {
		var label, encoded string
		if err := rows.Scan(&label, &encoded); err != nil {
			return nil, err
		}
		var tokens []string
		if err := json.Unmarshal([]byte(encoded), &tokens); err != nil {
			return nil, fmt.Errorf("decode tokens: %w", err)
		}
		docs = append(docs, lm.Document{Label: label, Tokens: tokens})
	}
	return docs, rows.Err()
}

// ListDatasets returns dataset names sorted alphabetically
func (s *sqliteStore) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveRun inserts or replaces an evaluation run
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id: %w", internalerr.ErrInvalidInput)
	}
	labels, err := json.Marshal(r.Labels)
	if err != nil {
		return err
	}
	contingency, err := json.Marshal(r.Contingency)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO runs (id, dataset, mode, labels, contingency, correct, total, accuracy, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	dataset=excluded.dataset,
	mode=excluded.mode,
	labels=excluded.labels,
	contingency=excluded.contingency,
	correct=excluded.correct,
	total=excluded.total,
	accuracy=excluded.accuracy,
	created_at=excluded.created_at`

	_, err = s.db.ExecContext(ctx, stmt,
		r.ID,
		r.Dataset,
		r.Mode,
		string(labels),
		string(contingency),
		r.Correct,
		r.Total,
		r.Accuracy,
		r.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

const runColumns = `id, dataset, mode, labels, contingency, correct, total, accuracy, created_at`

// GetRun returns a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r           store.Run
		dataset     sql.NullString
		labels      string
		contingency string
		createdAt   string
	)
	if err := sc.Scan(&r.ID, &dataset, &r.Mode, &labels, &contingency, &r.Correct, &r.Total, &r.Accuracy, &createdAt); err != nil {
		return store.Run{}, err
	}
	r.Dataset = dataset.String
	if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
		return store.Run{}, fmt.Errorf("decode labels: %w", err)
	}
	if err := json.Unmarshal([]byte(contingency), &r.Contingency); err != nil {
		return store.Run{}, fmt.Errorf("decode contingency: %w", err)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}
