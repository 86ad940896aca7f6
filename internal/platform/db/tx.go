package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const queryerKey contextKey = "db_queryer"

// Queryer is the subset of pgx operations repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository transparently joins
// an in-flight transaction carried in the context.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// QueryerFromContext retrieves a transaction-scoped Queryer. Returns nil
// when none is set; callers fall back to their pool.
func QueryerFromContext(ctx context.Context) Queryer {
	q, _ := ctx.Value(queryerKey).(Queryer)
	return q
}

// WithQueryer returns a context carrying q for repositories to pick up.
func WithQueryer(ctx context.Context, q Queryer) context.Context {
	return context.WithValue(ctx, queryerKey, q)
}

// WithTx runs fn inside a transaction placed in the context, so every
// repository call inside fn joins it. Commit on nil error, rollback
// otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithQueryer(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
