package attendance

import (
	"context"
	"time"

	id "schoolbus/pkg/domain"
)

// SessionStore persists sessions. Create must fail with sentinel.ErrConflict
// when a session already exists for the same (bus, date, type) key; the
// postgres unique index backs this under concurrent creation.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error)
	FindByKey(ctx context.Context, key Key) (*Session, error)
	UpdateSyncStatus(ctx context.Context, sessionID id.SessionID, status SyncStatus, syncedAt *time.Time) error
	ListPendingOffline(ctx context.Context, limit int) ([]Session, error)
}

// RecordStore is an append log of per-student marks.
type RecordStore interface {
	Append(ctx context.Context, r *Record) error
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]Record, error)
}
