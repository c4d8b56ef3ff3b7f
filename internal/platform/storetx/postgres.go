package storetx

import (
	"context"
	"database/sql"
	"time"

	dErrors "schoolbus/pkg/domain-errors"
	txcontext "schoolbus/pkg/platform/tx"
)

// defaultTxTimeout bounds a unit of work that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

// Postgres runs units of work against a *sql.DB. Begin/commit failures are
// wrapped as CodeTransaction; the deferred rollback makes mid-sequence
// failures leave no partial state.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := p.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransaction, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransaction, "failed to commit transaction")
	}
	return nil
}
