package suspension

import (
	"context"
	"sync"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

// InMemoryStore keeps suspensions in a map and enforces the at-most-one-
// unresolved invariant the way the postgres partial unique index does.
type InMemoryStore struct {
	mu          sync.RWMutex
	suspensions map[id.SuspensionID]Suspension
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{suspensions: make(map[id.SuspensionID]Suspension)}
}

func (s *InMemoryStore) Create(_ context.Context, susp *Suspension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suspensions[susp.ID]; exists {
		return sentinel.ErrConflict
	}
	if !susp.IsReactivated {
		for _, existing := range s.suspensions {
			if existing.StudentID == susp.StudentID && !existing.IsReactivated {
				return sentinel.ErrConflict
			}
		}
	}
	s.suspensions[susp.ID] = *susp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, suspensionID id.SuspensionID) (*Suspension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	susp, ok := s.suspensions[suspensionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := susp
	return &copied, nil
}

func (s *InMemoryStore) FindUnresolvedByStudent(_ context.Context, studentID id.StudentID) (*Suspension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, susp := range s.suspensions {
		if susp.StudentID == studentID && !susp.IsReactivated {
			copied := susp
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) MarkReactivated(_ context.Context, susp *Suspension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.suspensions[susp.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.IsReactivated {
		return sentinel.ErrInvalidState
	}
	s.suspensions[susp.ID] = *susp
	return nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.SuspensionID]Suspension, len(s.suspensions))
	for k, v := range s.suspensions {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspensions = state.(map[id.SuspensionID]Suspension)
}
