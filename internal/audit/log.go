// Package audit persists a local, append-only record of exec and patch
// calls to a SQLite database, independent of the in-memory path/session
// caches the core keeps for its own invariants.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS exec_log (
	id INTEGER PRIMARY KEY,
	workdir TEXT NOT NULL DEFAULT '',
	command TEXT NOT NULL,
	exit_code INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exec_log_recorded_at ON exec_log(recorded_at);
`

// Log is a sandbox.AuditRecorder backed by a local SQLite file.
type Log struct {
	db *sql.DB
}

// Open opens (creating if absent) the audit database at path.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database connection.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// RecordExec implements sandbox.AuditRecorder. Write failures are silently
// discarded, neither logged nor returned — audit logging must never affect
// the exec/patch result it describes.
func (l *Log) RecordExec(ctx context.Context, workdir, command string, exitCode int, durationMS int64) {
	if l.db == nil {
		return
	}
	_, _ = l.db.ExecContext(ctx,
		"INSERT INTO exec_log (workdir, command, exit_code, duration_ms, recorded_at) VALUES (?, ?, ?, ?, ?)",
		workdir, command, exitCode, durationMS, time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// Recent returns the n most recently recorded exec entries, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT workdir, command, exit_code, duration_ms, recorded_at FROM exec_log ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.Workdir, &e.Command, &e.ExitCode, &e.DurationMS, &recordedAt); err != nil {
			return nil, err
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Entry is one row of the exec audit log.
type Entry struct {
	Workdir    string
	Command    string
	ExitCode   int
	DurationMS int64
	RecordedAt time.Time
}
