// package diag provides a sqlite-backed implementation of the API client's
// diagnostic observer, plus queries for the debug command.
//
// Recording is strictly best effort: insert failures are logged and
// swallowed so diagnostics can never alter request control flow.
package diag

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/spotify"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagnostics (
	id TEXT PRIMARY KEY,
	ts INTEGER NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL DEFAULT 0,
	attempt INTEGER NOT NULL DEFAULT 0,
	err TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_diagnostics_ts ON diagnostics(ts);
`

// Recorder persists request/response diagnostic records to sqlite.
// Implements [spotify.Observer].
type Recorder struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (or creates) the diagnostics database at path.
func Open(path string, logger *log.Logger) (*Recorder, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create diagnostics schema: %w", err)
	}

	return &Recorder{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Record inserts a diagnostic event. Failures are logged, never returned.
func (r *Recorder) Record(event spotify.Event) {
	query := `
		INSERT INTO diagnostics (id, ts, method, url, status, attempt, err) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, event.ID, event.Time.UnixMilli(), event.Method, event.URL, event.Status, event.Attempt, event.Err)
	if err != nil {
		r.logger.Warnf("failed to record diagnostic event: %v", err)
	}
}

// Tail returns the n most recent diagnostic events, newest first.
func (r *Recorder) Tail(n int) ([]spotify.Event, error) {
	if n <= 0 {
		n = 20
	}

	query := `
		SELECT id, ts, method, url, status, attempt, err
		FROM diagnostics
		ORDER BY ts DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var events []spotify.Event
	for rows.Next() {
		var event spotify.Event
		var millis int64
		if err := rows.Scan(&event.ID, &millis, &event.Method, &event.URL, &event.Status, &event.Attempt, &event.Err); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic row: %w", err)
		}
		event.Time = time.UnixMilli(millis)
		events = append(events, event)
	}

	return events, rows.Err()
}
