// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an optional SQLite log of conversion attempts. Only
// metadata is stored: names, engines, sizes and diagnostics, never the
// document content or the converted text.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc-reader/pkg/types"
)

// defaultLimit caps List when no positive limit is given.
const defaultLimit = 50

// Entry is one recorded conversion attempt.
type Entry struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	DisplayName    string       `json:"display_name" yaml:"display_name"`
	Succeeded      bool         `json:"succeeded" yaml:"succeeded"`
	Engine         types.Engine `json:"engine,omitempty" yaml:"engine,omitempty"`
	OriginalBytes  int64        `json:"original_bytes" yaml:"original_bytes"`
	ConvertedBytes int64        `json:"converted_bytes" yaml:"converted_bytes"`
	PercentDelta   float64      `json:"percent_delta" yaml:"percent_delta"`
	Diagnostics    []string     `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	CreatedAt      time.Time    `json:"created_at" yaml:"created_at"`
}

// NewEntry builds an Entry for one processed document. report may be nil
// for failed conversions.
func NewEntry(name string, sizeBytes int64, outcome types.ConversionOutcome, report *types.SizeReport) Entry {
	e := Entry{
		Name:          name,
		DisplayName:   outcome.DisplayName,
		Succeeded:     outcome.Succeeded,
		Engine:        outcome.EngineUsed,
		OriginalBytes: sizeBytes,
		Diagnostics:   outcome.Diagnostics,
	}
	if report != nil {
		e.ConvertedBytes = report.ConvertedBytes
		e.PercentDelta = report.PercentDelta
	}
	return e
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			display_name TEXT,
			succeeded INTEGER NOT NULL,
			engine TEXT,
			original_bytes INTEGER NOT NULL,
			converted_bytes INTEGER NOT NULL,
			percent_delta REAL NOT NULL,
			diagnostics TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e, assigning its ID and timestamp, and returns the stored
// entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()

	diags, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return e, fmt.Errorf("encoding diagnostics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, name, display_name, succeeded, engine,
			original_bytes, converted_bytes, percent_delta, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.DisplayName, e.Succeeded, string(e.Engine),
		e.OriginalBytes, e.ConvertedBytes, e.PercentDelta, string(diags),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return e, fmt.Errorf("recording %s: %w", e.Name, err)
	}
	return e, nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, display_name, succeeded, engine, original_bytes,
			converted_bytes, percent_delta, diagnostics, created_at
		FROM conversions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			engine    string
			diags     sql.NullString
			display   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Name, &display, &e.Succeeded, &engine,
			&e.OriginalBytes, &e.ConvertedBytes, &e.PercentDelta, &diags, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.DisplayName = display.String
		e.Engine = types.Engine(engine)
		if diags.Valid && diags.String != "" && diags.String != "null" {
			if err := json.Unmarshal([]byte(diags.String), &e.Diagnostics); err != nil {
				return nil, fmt.Errorf("decoding diagnostics for %s: %w", e.ID, err)
			}
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing timestamp for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExportYAML writes up to limit entries to w as a YAML sequence.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return enc.Close()
}
