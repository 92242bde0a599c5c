// Package store keeps the history of research runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"go.mau.fi/util/dbutil"
)

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"

	DefaultPath      = "research_outputs/runs.db"
	DefaultListLimit = 50
)

var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS research_runs (
	id           TEXT PRIMARY KEY,
	topic        TEXT NOT NULL,
	triggered_by TEXT NOT NULL DEFAULT 'api',
	status       TEXT NOT NULL,
	output_file  TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	error_code   TEXT NOT NULL DEFAULT '',
	sources      TEXT NOT NULL DEFAULT '[]',
	created_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS research_runs_created_idx ON research_runs (created_at);
`

// Config locates the database file.
type Config struct {
	Path string `yaml:"path"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = DefaultPath
	}
	return c
}

// Run is one research run.
type Run struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	OutputFile string    `json:"outputFile,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorCode  string    `json:"errorCode,omitempty"`
	Sources    []string  `json:"sources"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// Result is what a finished run records.
type Result struct {
	Status     string
	OutputFile string
	Error      string
	ErrorCode  string
	Sources    []string
}

type Store struct {
	db  *dbutil.Database
	raw *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at cfg.Path and applies
// the schema.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	cfg = cfg.WithDefaults()
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	raw, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := dbutil.NewWithDB(raw, "sqlite3")
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("wrap db: %w", err)
	}
	s := &Store{db: db, raw: raw, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create research_runs: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.raw.Close()
}

// Create records a new running run and returns it.
func (s *Store) Create(ctx context.Context, topic, trigger string) (*Run, error) {
	if trigger == "" {
		trigger = "api"
	}
	run := &Run{
		ID:        xid.New().String(),
		Topic:     topic,
		Trigger:   trigger,
		Status:    StatusRunning,
		Sources:   []string{},
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO research_runs (id, topic, triggered_by, status, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Topic, run.Trigger, run.Status, run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the final state of a run.
func (s *Store) Finish(ctx context.Context, id string, result Result) error {
	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(ctx,
		`UPDATE research_runs
         SET status=$1, output_file=$2, error=$3, error_code=$4, sources=$5, finished_at=$6
         WHERE id=$7`,
		result.Status, result.OutputFile, result.Error, result.ErrorCode, string(encoded), s.now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

const selectRun = `SELECT id, topic, triggered_by, status, output_file, error, error_code, sources, created_at, finished_at FROM research_runs`

// Get returns one run, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRow(ctx, selectRun+` WHERE id=$1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(ctx, selectRun+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var sources string
	var createdAt, finishedAt int64
	err := row.Scan(&run.ID, &run.Topic, &run.Trigger, &run.Status, &run.OutputFile,
		&run.Error, &run.ErrorCode, &sources, &createdAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &run.Sources); err != nil || run.Sources == nil {
		run.Sources = []string{}
	}
	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	if finishedAt > 0 {
		run.FinishedAt = time.UnixMilli(finishedAt).UTC()
	}
	return &run, nil
}
