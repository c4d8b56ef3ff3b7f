package storetx

import (
	"context"
	"sync"

	dErrors "schoolbus/pkg/domain-errors"
)

// Snapshotter is implemented by in-memory stores that participate in a unit
// of work. Snapshot returns an opaque deep copy of the store's state;
// Restore puts it back when the unit fails.
type Snapshotter interface {
	Snapshot() any
	Restore(state any)
}

// Memory serializes units of work behind one mutex and rolls participating
// stores back on failure, so unit tests observe the same all-or-nothing
// semantics the postgres runner provides.
type Memory struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewMemory(stores ...Snapshotter) *Memory {
	return &Memory{stores: stores}
}

func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]any, len(m.stores))
	for i, s := range m.stores {
		snapshots[i] = s.Snapshot()
	}

	if err := fn(ctx); err != nil {
		for i, s := range m.stores {
			s.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
