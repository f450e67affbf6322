// Package journal keeps an optional SQLite record of delivery
// attempts, mostly so a user can answer "did that notification
// actually go out last night" after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339

// Delivery mode values.
const (
	ModeImmediate = "immediate"
	ModeDelayed   = "delayed"
)

// Delivery is one recorded delivery attempt.
type Delivery struct {
	ID        string
	Channel   string
	Mode      string // "immediate" or "delayed"
	Title     string
	Message   string
	SessionID string
	Delivered bool
	Error     string
	CreatedAt time.Time
}

// Journal implements the delivery log using modernc.org/sqlite
// (pure Go, zero CGO).
type Journal struct {
	db            *sql.DB
	retentionDays int
}

// Open opens (or creates) the journal database and runs migrations.
// The database file is created with 0600 permissions and its parent
// directory with 0700.
func Open(path string, retentionDays int) (*Journal, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return nil, fmt.Errorf("creating journal file: %w", err)
			}
			_ = f.Close()
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	db.SetMaxIdleConns(1)

	j := &Journal{db: db, retentionDays: retentionDays}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return j, nil
}

var migrations = []string{
	`CREATE TABLE deliveries (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		mode TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		delivered INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX idx_deliveries_created_at ON deliveries(created_at);`,
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := j.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		slog.Debug("applying journal migration", "version", i+1)
		if _, err := j.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := j.db.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one delivery attempt.
func (j *Journal) Record(d *Delivery) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := j.db.Exec(`INSERT INTO deliveries (id, channel, mode, title, message, session_id, delivered, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Channel, d.Mode, d.Title, d.Message, d.SessionID,
		boolToInt(d.Delivered), d.Error, d.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("recording delivery: %w", err)
	}
	return nil
}

// Recent returns the most recent delivery attempts, newest first.
func (j *Journal) Recent(limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.Query(`SELECT id, channel, mode, title, message, session_id, delivered, error, created_at
		FROM deliveries ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var delivered int
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Channel, &d.Mode, &d.Title, &d.Message,
			&d.SessionID, &delivered, &d.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}
		d.Delivered = delivered != 0
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Cleanup deletes deliveries older than the retention window.
func (j *Journal) Cleanup() error {
	if j.retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -j.retentionDays).Format(timeFormat)
	if _, err := j.db.Exec("DELETE FROM deliveries WHERE created_at < ?", cutoff); err != nil {
		return fmt.Errorf("cleaning deliveries: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
