package transfer

import (
	"context"
	"sort"
	"sync"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	transfers map[id.TransferID]Transfer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transfers: make(map[id.TransferID]Transfer)}
}

func (s *InMemoryStore) Create(_ context.Context, t *Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[t.ID]; exists {
		return sentinel.ErrConflict
	}
	s.transfers[t.ID] = *t
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transfer
	for _, t := range s.transfers {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransferredAt.Before(out[j].TransferredAt) })
	return out, nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.TransferID]Transfer, len(s.transfers))
	for k, v := range s.transfers {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = state.(map[id.TransferID]Transfer)
}
