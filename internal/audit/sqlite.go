package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteLog implements Log using modernc.org/sqlite. The entry body is stored
// as JSON; indexed columns exist only for ordering and lookup.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) a SQLite-backed audit log.
func NewSQLite(dsn string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "audit: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "audit: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	entry      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_entries_domain ON audit_entries(domain);
`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "audit: migrate")
	}

	return &SQLiteLog{db: db}, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func (l *SQLiteLog) Append(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "audit: marshal entry")
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, domain, created_at, entry) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Domain, entry.CreatedAt.UTC(), string(body),
	)
	return eris.Wrap(err, "audit: append entry")
}

func (l *SQLiteLog) List(ctx context.Context, cursor, limit int) (ListResult, error) {
	limit = clampLimit(limit)
	if cursor < 0 {
		cursor = 0
	}

	// Fetch one extra row to learn whether another page exists.
	rows, err := l.db.QueryContext(ctx,
		`SELECT entry FROM audit_entries ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit+1, cursor,
	)
	if err != nil {
		return ListResult{}, eris.Wrap(err, "audit: list entries")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return ListResult{}, eris.Wrap(err, "audit: scan entry")
		}
		var entry Entry
		if err := json.Unmarshal([]byte(body), &entry); err != nil {
			return ListResult{}, eris.Wrap(err, "audit: unmarshal entry")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, eris.Wrap(err, "audit: iterate entries")
	}

	result := ListResult{Items: entries}
	if len(entries) > limit {
		result.Items = entries[:limit]
		next := cursor + limit
		result.NextCursor = &next
	}
	return result, nil
}

func (l *SQLiteLog) Get(ctx context.Context, id string) (*Entry, error) {
	var body string
	err := l.db.QueryRowContext(ctx,
		`SELECT entry FROM audit_entries WHERE id = ?`, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "audit: get entry %s", id)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(body), &entry); err != nil {
		return nil, eris.Wrap(err, "audit: unmarshal entry")
	}
	return &entry, nil
}

func (l *SQLiteLog) Clear(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM audit_entries`)
	return eris.Wrap(err, "audit: clear")
}

// entryTimes exists for tests that verify ordering without decoding bodies.
func (l *SQLiteLog) entryTimes(ctx context.Context) ([]time.Time, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT created_at FROM audit_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "audit: entry times")
	}
	defer rows.Close()
	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "audit: scan time")
		}
		times = append(times, t)
	}
	return times, rows.Err()
}
