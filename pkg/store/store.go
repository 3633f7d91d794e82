// Package store persists finished plans in SQLite so a downstream evaluator
// can pick them up.
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

	_ "modernc.org/sqlite"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
)

// ErrNotFound is returned by Get for unknown plan IDs.
var ErrNotFound = errors.New("plan not found")

// Summary is a stored plan without its body.
type Summary struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	SplitKey  string    `json:"split_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed plan store.
type Store struct {
	db     *sql.DB
	dbPath string
}

const schema = `CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	operation  TEXT NOT NULL,
	split_key  TEXT NOT NULL,
	plan_json  TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_operation ON plans(operation, created_at);`

// Open opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database (testing).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a plan, replacing any plan with the same ID.
func (s *Store) Save(ctx context.Context, p *planner.Plan) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("plan has no id")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO plans (id, operation, split_key, plan_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Operation, p.Split.SplitKey, string(body), p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", p.ID, err)
	}
	return nil
}

// Get loads a plan by ID.
func (s *Store) Get(ctx context.Context, id string) (*planner.Plan, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT plan_json FROM plans WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", id, err)
	}

	var p planner.Plan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", id, err)
	}
	return &p, nil
}

// List returns the most recent plans first. A non-empty operation filters
// by operation name; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, operation string, limit int) ([]Summary, error) {
	query := `SELECT id, operation, split_key, created_at FROM plans`
	var args []any
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created string
		if err := rows.Scan(&sum.ID, &sum.Operation, &sum.SplitKey, &created); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a plan. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	return nil
}
