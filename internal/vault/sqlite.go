package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. Raw values are stored
// as-is; encryption at rest is a concern of the host platform keychain.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "vault: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "vault: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS vault_items (
	key         TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	label       TEXT NOT NULL,
	category    TEXT NOT NULL,
	provenance  TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	last_used   DATETIME,
	usage_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_vault_items_category ON vault_items(category);
`

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(sqliteMigration)
	return eris.Wrap(err, "vault: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Set(ctx context.Context, item Item) error {
	if item.Key == "" {
		return eris.New("vault: key cannot be empty")
	}
	prov, err := json.Marshal(item.Provenance)
	if err != nil {
		return eris.Wrap(err, "vault: marshal provenance")
	}

	var lastUsed any
	if item.Metadata.LastUsed != nil {
		lastUsed = item.Metadata.LastUsed.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vault_items (key, value, label, category, provenance, created_at, updated_at, last_used, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			label = excluded.label,
			category = excluded.category,
			provenance = excluded.provenance,
			updated_at = excluded.updated_at,
			last_used = excluded.last_used,
			usage_count = excluded.usage_count`,
		item.Key, item.Value, item.Label, string(item.Category), string(prov),
		item.Metadata.Created.UTC(), item.Metadata.Updated.UTC(), lastUsed, item.Metadata.UsageCount,
	)
	if err != nil {
		return eris.Wrapf(err, "vault: set %s", item.Key)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, value, label, category, provenance, created_at, updated_at, last_used, usage_count
		 FROM vault_items WHERE key = ?`, key)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "vault: get %s", key)
	}
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, label, category, provenance, created_at, updated_at, last_used, usage_count
		 FROM vault_items ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "vault: list")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "vault: scan item")
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "vault: iterate items")
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vault_items WHERE key = ?`, key)
	if err != nil {
		return eris.Wrapf(err, "vault: delete %s", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "vault: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "vault: delete %s", key)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vault_items`)
	return eris.Wrap(err, "vault: clear")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item     Item
		category string
		provJSON string
		lastUsed sql.NullTime
	)
	err := row.Scan(&item.Key, &item.Value, &item.Label, &category, &provJSON,
		&item.Metadata.Created, &item.Metadata.Updated, &lastUsed, &item.Metadata.UsageCount)
	if err != nil {
		return nil, err
	}
	item.Category = Category(category)
	if err := json.Unmarshal([]byte(provJSON), &item.Provenance); err != nil {
		return nil, eris.Wrap(err, "unmarshal provenance")
	}
	if lastUsed.Valid {
		t := lastUsed.Time.UTC()
		item.Metadata.LastUsed = &t
	}
	return &item, nil
}

// NewItem creates an Item with fresh metadata.
func NewItem(key, value, label string, category Category, prov Provenance, now time.Time) Item {
	return Item{
		Key:        key,
		Value:      value,
		Label:      label,
		Category:   category,
		Provenance: prov,
		Metadata:   Metadata{Created: now, Updated: now},
	}
}
