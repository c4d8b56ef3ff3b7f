// Package tx carries a *sql.Tx through context so stores compose inside a
// unit of work without changing their signatures. The storetx runner begins
// the transaction and injects it; every postgres store picks it up via
// Executor and falls back to the raw *sql.DB outside a transaction.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Queryer is the subset of *sql.DB / *sql.Tx the stores need. Both satisfy it.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor returns the transaction carried by ctx when present, db otherwise.
func Executor(ctx context.Context, db *sql.DB) Queryer {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}
