package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
)

// DefaultFileName is the history database inside the data directory.
const DefaultFileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	kind        TEXT NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	message     TEXT NOT NULL DEFAULT '',
	duration_ns INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions (started_at);
`

// Entry is one recorded execution.
type Entry struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Kind      executor.Kind `json:"kind"`
	Status    int           `json:"status,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// FromResult builds an entry for an execution that started at startedAt.
func FromResult(spec executor.RequestSpec, result executor.Result, startedAt time.Time) Entry {
	method, _ := executor.ParseMethod(spec.Method)
	return Entry{
		ID:        uuid.New().String(),
		StartedAt: startedAt.UTC(),
		Method:    string(method),
		URL:       spec.URL,
		Kind:      result.Kind,
		Status:    result.Status,
		Message:   result.Message,
		Duration:  result.Duration,
	}
}

// DB is the execution history database.
type DB struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens (or creates) the history database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &DB{
		db:           db,
		path:         path,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Path returns the database file location.
func (h *DB) Path() string {
	return h.path
}

// Close closes the database.
func (h *DB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Record stores an entry. An entry without an id gets one.
func (h *DB) Record(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO executions (id, started_at, method, url, kind, status, message, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UTC().UnixNano(), e.Method, e.URL, string(e.Kind), e.Status, e.Message, int64(e.Duration))
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 returns all.
func (h *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	query := `SELECT id, started_at, method, url, kind, status, message, duration_ns
		FROM executions ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			startedAt  int64
			kind       string
			durationNs int64
		)
		if err := rows.Scan(&e.ID, &startedAt, &e.Method, &e.URL, &kind, &e.Status, &e.Message, &durationNs); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.StartedAt = time.Unix(0, startedAt).UTC()
		e.Kind = executor.Kind(kind)
		e.Duration = time.Duration(durationNs)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (h *DB) Clear(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	res, err := h.db.ExecContext(ctx, `DELETE FROM executions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared rows: %w", err)
	}
	return n, nil
}
