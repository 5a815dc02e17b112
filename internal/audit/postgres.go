package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the log uses, abstracted so pgxmock can
// stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLog implements Log using a pgx connection pool, for hosts that
// centralize audit records in a shared database.
type PostgresLog struct {
	pool    Pool
	closeFn func()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	entry      JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_entries_domain ON audit_entries(domain);
`

// NewPostgres connects a pool and runs the migration.
func NewPostgres(ctx context.Context, connString string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "audit: connect postgres")
	}
	l := &PostgresLog{pool: pool, closeFn: pool.Close}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "audit: migrate postgres")
	}
	return l, nil
}

func (l *PostgresLog) Close() error {
	if l.closeFn != nil {
		l.closeFn()
	}
	return nil
}

func (l *PostgresLog) Append(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "audit: marshal entry")
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, domain, created_at, entry) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.Domain, entry.CreatedAt.UTC(), string(body),
	)
	return eris.Wrap(err, "audit: append entry")
}

func (l *PostgresLog) List(ctx context.Context, cursor, limit int) (ListResult, error) {
	limit = clampLimit(limit)
	if cursor < 0 {
		cursor = 0
	}

	rows, err := l.pool.Query(ctx,
		`SELECT entry FROM audit_entries ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit+1, cursor,
	)
	if err != nil {
		return ListResult{}, eris.Wrap(err, "audit: list entries")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return ListResult{}, eris.Wrap(err, "audit: scan entry")
		}
		var entry Entry
		if err := json.Unmarshal(body, &entry); err != nil {
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

func (l *PostgresLog) Get(ctx context.Context, id string) (*Entry, error) {
	var body []byte
	err := l.pool.QueryRow(ctx,
		`SELECT entry FROM audit_entries WHERE id = $1`, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "audit: get entry %s", id)
	}
	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, eris.Wrap(err, "audit: unmarshal entry")
	}
	return &entry, nil
}

func (l *PostgresLog) Clear(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `DELETE FROM audit_entries`)
	return eris.Wrap(err, "audit: clear")
}
