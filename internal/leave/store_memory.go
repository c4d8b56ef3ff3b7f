package leave

import (
	"context"
	"sort"
	"sync"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	leaves map[id.LeaveID]Leave
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{leaves: make(map[id.LeaveID]Leave)}
}

func (s *InMemoryStore) Create(_ context.Context, l *Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leaves[l.ID]; exists {
		return sentinel.ErrConflict
	}
	s.leaves[l.ID] = *l
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, leaveID id.LeaveID) (*Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leaves[leaveID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := l
	return &copied, nil
}

func (s *InMemoryStore) ListNonCancelledByStudent(_ context.Context, studentID id.StudentID) ([]Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Leave
	for _, l := range s.leaves {
		if l.StudentID == studentID && !l.IsCancelled {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, l *Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leaves[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.leaves[l.ID] = *l
	return nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.LeaveID]Leave, len(s.leaves))
	for k, v := range s.leaves {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves = state.(map[id.LeaveID]Leave)
}
