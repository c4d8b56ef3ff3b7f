// Package storetx provides the unit-of-work boundary every manager runs its
// mutations inside. A Runner either commits the whole callback or leaves the
// store untouched; partial state is never observable.
package storetx

import "context"

// Runner executes fn inside one atomic unit. Implementations wrap a database
// transaction or, in-memory, a coarse lock with snapshot/restore. The context
// passed to fn carries the transaction so stores compose transparently.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
