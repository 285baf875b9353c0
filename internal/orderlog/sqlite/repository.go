// Package sqlite is the SQLite implementation of orderlog.Repository. The
// database runs in WAL mode so tracking reads do not block status writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/orderlog"

	// pure-Go driver, registers "sqlite"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    INTEGER NOT NULL,
    from_status TEXT    NOT NULL DEFAULT '',
    to_status   TEXT    NOT NULL,
    note        TEXT    NOT NULL DEFAULT '',
    actor       TEXT    NOT NULL DEFAULT '',
    trace_id    TEXT    NOT NULL DEFAULT '',
    created_at  TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id, id);
`

type Repository struct {
	db *sql.DB
}

var _ orderlog.Repository = (*Repository)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Append(ctx context.Context, e *orderlog.Entry) error {
	const q = `
		INSERT INTO order_events (order_id, from_status, to_status, note, actor, trace_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.OrderID,
		string(e.From),
		string(e.To),
		e.Note,
		e.Actor,
		e.TraceID,
		formatTime(e.At),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append event for order %d: %w", e.OrderID, err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, orderID int64) ([]orderlog.Entry, error) {
	const q = `
		SELECT order_id, from_status, to_status, note, actor, trace_id, created_at
		FROM   order_events
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var entries []orderlog.Entry
	for rows.Next() {
		var (
			e        orderlog.Entry
			from, to string
			at       string
		)
		if err := rows.Scan(&e.OrderID, &from, &to, &e.Note, &e.Actor, &e.TraceID, &at); err != nil {
			return nil, fmt.Errorf("sqlite: scan event: %w", err)
		}
		e.From = models.Status(from)
		e.To = models.Status(to)
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: history for order %d: %w", orderID, err)
	}
	return entries, nil
}
