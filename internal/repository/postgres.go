package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres implements Store on top of database/sql and lib/pq.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Postgres{db: db, timeout: timeout}
}

func (r *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return classify("ping", r.db.PingContext(ctx))
}

func (r *Postgres) Close() error { return r.db.Close() }

// InTx runs fn inside a read-committed transaction bounded by the store
// timeout. Row-level atomicity comes from conditional UPDATEs and
// SELECT ... FOR UPDATE, so serializable isolation is not needed.
func (r *Postgres) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(ctx, &pgTx{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classify("commit tx", err)
	}
	committed = true
	return nil
}

// pgTx implements Tx; its methods live in stock_repo.go, usage_repo.go and
// order_repo.go.
type pgTx struct {
	q querier
}

func rowsAffected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, models.ErrNotFound)
}
