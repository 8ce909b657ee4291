// Package journal records conversion outcomes in a SQLite database so the
// server can report recent runs.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	web2md "github.com/alnah/go-web2md"
)

// ErrClosed indicates use after Close.
var ErrClosed = errors.New("journal is closed")

// Compile-time interface check.
var _ web2md.Recorder = (*Journal)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	ok          INTEGER NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	chars       INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);`

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded run.
type Entry struct {
	RunID     string      `json:"run_id"`
	URL       string      `json:"url"`
	OK        bool        `json:"ok"`
	Kind      web2md.Kind `json:"kind,omitempty"`
	Message   string      `json:"message,omitempty"`
	Chars     int         `json:"chars"`
	Duration  int64       `json:"duration_ms"`
	CreatedAt time.Time   `json:"created_at"`
}

// Journal is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One connection: writes are serialized by SQLite anyway and an
	// in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Record stores out. A run ID recorded twice keeps the latest outcome.
func (j *Journal) Record(ctx context.Context, out web2md.Outcome) error {
	if j.db == nil {
		return ErrClosed
	}
	var kind web2md.Kind
	var msg string
	if out.Failure != nil {
		kind, msg = out.Failure.Kind, out.Failure.Message
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, url, ok, kind, message, chars, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		out.RunID, out.URL, out.OK(), string(kind), msg, len(out.Markdown),
		out.Duration.Milliseconds(), j.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", out.RunID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, url, ok, kind, message, chars, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e       Entry
			kind    string
			created string
		)
		if err := rows.Scan(&e.RunID, &e.URL, &e.OK, &kind, &e.Message, &e.Chars, &e.Duration, &created); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Kind = web2md.Kind(kind)
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing journal time %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
