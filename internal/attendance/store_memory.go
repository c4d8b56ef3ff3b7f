package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in maps and enforces the composite-key
// uniqueness the postgres unique index provides.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]Session
	byKey    map[Key]id.SessionID
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[id.SessionID]Session),
		byKey:    make(map[Key]id.SessionID),
	}
}

func (s *InMemorySessionStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return sentinel.ErrConflict
	}
	key := sess.Key()
	if _, exists := s.byKey[key]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[sess.ID] = *sess
	s.byKey[key] = sess.ID
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := sess
	return &copied, nil
}

func (s *InMemorySessionStore) FindByKey(_ context.Context, key Key) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.byKey[Key{BusID: key.BusID, Date: DateOnly(key.Date), Type: key.Type}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	sess := s.sessions[sessionID]
	copied := sess
	return &copied, nil
}

func (s *InMemorySessionStore) UpdateSyncStatus(_ context.Context, sessionID id.SessionID, status SyncStatus, syncedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sess.SyncStatus = status
	sess.SyncedAt = syncedAt
	s.sessions[sessionID] = sess
	return nil
}

func (s *InMemorySessionStore) ListPendingOffline(_ context.Context, limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Session
	for _, sess := range s.sessions {
		if sess.CreatedOffline && (sess.SyncStatus == SyncPending || sess.SyncStatus == SyncFailed) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemorySessionStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make(map[id.SessionID]Session, len(s.sessions))
	for k, v := range s.sessions {
		sessions[k] = v
	}
	byKey := make(map[Key]id.SessionID, len(s.byKey))
	for k, v := range s.byKey {
		byKey[k] = v
	}
	return [2]any{sessions, byKey}
}

// Restore implements storetx.Snapshotter.
func (s *InMemorySessionStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := state.([2]any)
	s.sessions = pair[0].(map[id.SessionID]Session)
	s.byKey = pair[1].(map[Key]id.SessionID)
}

// InMemoryRecordStore is an append-only slice of records.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{}
}

func (s *InMemoryRecordStore) Append(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *r)
	return nil
}

func (s *InMemoryRecordStore) ListBySession(_ context.Context, sessionID id.SessionID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryRecordStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]Record, len(s.records))
	copy(copied, s.records)
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryRecordStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = state.([]Record)
}
