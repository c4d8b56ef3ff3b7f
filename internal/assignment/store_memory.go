package assignment

import (
	"context"
	"sync"
	"time"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments in a map and enforces the one-active-per-
// student invariant the way the postgres partial unique index does.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[id.AssignmentID]Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assignments: make(map[id.AssignmentID]Assignment)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assignments[a.ID]; exists {
		return sentinel.ErrConflict
	}
	if a.IsActive {
		for _, existing := range s.assignments {
			if existing.StudentID == a.StudentID && existing.IsActive {
				return sentinel.ErrConflict
			}
		}
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, assignmentID id.AssignmentID) (*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := a
	return &copied, nil
}

func (s *InMemoryStore) FindActiveByStudent(_ context.Context, studentID id.StudentID) (*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments {
		if a.StudentID == studentID && a.IsActive {
			copied := a
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListActiveByBus(_ context.Context, busID id.BusID) ([]*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Assignment
	for _, a := range s.assignments {
		if a.BusID == busID && a.IsActive {
			copied := a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountActiveForBus(_ context.Context, busID id.BusID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.assignments {
		if a.BusID == busID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, assignmentID id.AssignmentID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.IsActive = false
	a.DeactivatedAt = &at
	s.assignments[assignmentID] = a
	return nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.AssignmentID]Assignment, len(s.assignments))
	for k, v := range s.assignments {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = state.(map[id.AssignmentID]Assignment)
}
