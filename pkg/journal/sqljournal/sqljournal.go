// Package sqljournal implements journal.Driver over database/sql. The sqlite
// and postgres packages open the connection and pick the dialect.
package sqljournal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/playground/pkg/journal"
)

// Dialect selects schema and placeholder syntax.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	chat_id TEXT NOT NULL,
	origin TEXT NOT NULL,
	user_message TEXT NOT NULL,
	assistant_content TEXT NOT NULL,
	assistant_thinking TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_chat_id ON journal_entries(chat_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	chat_id TEXT NOT NULL,
	origin TEXT NOT NULL,
	user_message TEXT NOT NULL,
	assistant_content TEXT NOT NULL,
	assistant_thinking TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_chat_id ON journal_entries(chat_id);
`

const columns = `id, chat_id, origin, user_message, assistant_content, assistant_thinking, metadata, created_at`

// Driver implements journal.Driver on a *sql.DB.
type Driver struct {
	db      *sql.DB
	dialect Dialect
}

// New migrates db and returns a Driver. The Driver owns db from then on.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{db: db, dialect: dialect}
	if err := d.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if d.dialect == Postgres {
		schema = postgresSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append inserts e.
func (d *Driver) Append(ctx context.Context, e *journal.Entry) error {
	if e == nil {
		return errors.New("cannot append nil entry")
	}

	journal.Prepare(e, time.Now())

	var metadata sql.NullString
	if e.Metadata != nil {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	query := d.rebind(`INSERT INTO journal_entries (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := d.db.ExecContext(ctx, query,
		e.ID, e.ChatID, e.Origin, e.UserMessage, e.AssistantContent, e.AssistantThinking, metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// List returns matching entries newest first.
func (d *Driver) List(ctx context.Context, f journal.Filter) ([]*journal.Entry, error) {
	var (
		b    strings.Builder
		args []any
	)

	b.WriteString(`SELECT ` + columns + ` FROM journal_entries`)
	if f.ChatID != "" {
		b.WriteString(` WHERE chat_id = ?`)
		args = append(args, f.ChatID)
	}
	b.WriteString(` ORDER BY seq DESC`)
	if f.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, d.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []*journal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal: %w", err)
	}
	return out, nil
}

// Get returns one entry by ID.
func (d *Driver) Get(ctx context.Context, id string) (*journal.Entry, error) {
	row := d.db.QueryRowContext(ctx, d.rebind(`SELECT `+columns+` FROM journal_entries WHERE id = ?`), id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Clear deletes entries for chatID, or all entries when chatID is empty.
func (d *Driver) Clear(ctx context.Context, chatID string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if chatID == "" {
		res, err = d.db.ExecContext(ctx, `DELETE FROM journal_entries`)
	} else {
		res, err = d.db.ExecContext(ctx, d.rebind(`DELETE FROM journal_entries WHERE chat_id = ?`), chatID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear journal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared entries: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*journal.Entry, error) {
	var (
		e        journal.Entry
		metadata sql.NullString
	)

	err := s.Scan(&e.ID, &e.ChatID, &e.Origin, &e.UserMessage, &e.AssistantContent, &e.AssistantThinking, &metadata, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *Driver) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
