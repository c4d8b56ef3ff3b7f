package audit

import (
	"context"
	"time"

	"schoolbus/pkg/requestcontext"
)

// Store is the append-only persistence boundary for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills attribution defaults from context and appends the event. When
// called inside a unit of work the append shares the caller's transaction.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return p.store.Append(ctx, event)
}

// List returns the trail for one entity, oldest first.
func (p *Publisher) List(ctx context.Context, entityType, entityID string) ([]Event, error) {
	return p.store.ListByEntity(ctx, entityType, entityID)
}
