package registry

import (
	"context"
	"sync"
	"time"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
)

// InMemoryStudentStore keeps students in a map. It implements
// storetx.Snapshotter so the memory unit-of-work can roll it back.
type InMemoryStudentStore struct {
	mu       sync.RWMutex
	students map[id.StudentID]Student
}

func NewInMemoryStudentStore() *InMemoryStudentStore {
	return &InMemoryStudentStore{students: make(map[id.StudentID]Student)}
}

func (s *InMemoryStudentStore) Create(_ context.Context, student *Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.students[student.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.students {
		if existing.Lifecycle != LifecycleDeleted && existing.ExternalStudentID == student.ExternalStudentID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.students[student.ID] = *student
	return nil
}

func (s *InMemoryStudentStore) FindByID(_ context.Context, studentID id.StudentID) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[studentID]
	if !ok || student.Lifecycle == LifecycleDeleted {
		return nil, sentinel.ErrNotFound
	}
	copied := student
	return &copied, nil
}

func (s *InMemoryStudentStore) FindByExternalID(_ context.Context, externalStudentID string) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students {
		if student.Lifecycle != LifecycleDeleted && student.ExternalStudentID == externalStudentID {
			copied := student
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStudentStore) UpdateStatus(_ context.Context, studentID id.StudentID, status StudentStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[studentID]
	if !ok || student.Lifecycle == LifecycleDeleted {
		return sentinel.ErrNotFound
	}
	student.Status = status
	student.UpdatedAt = updatedAt
	s.students[studentID] = student
	return nil
}

func (s *InMemoryStudentStore) SoftDelete(_ context.Context, studentID id.StudentID, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[studentID]
	if !ok || student.Lifecycle == LifecycleDeleted {
		return sentinel.ErrNotFound
	}
	student.Lifecycle = LifecycleDeleted
	student.DeletedAt = &deletedAt
	student.UpdatedAt = deletedAt
	s.students[studentID] = student
	return nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryStudentStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.StudentID]Student, len(s.students))
	for k, v := range s.students {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryStudentStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = state.(map[id.StudentID]Student)
}

// InMemoryBusStore keeps buses in a map.
type InMemoryBusStore struct {
	mu    sync.RWMutex
	buses map[id.BusID]Bus
}

func NewInMemoryBusStore() *InMemoryBusStore {
	return &InMemoryBusStore{buses: make(map[id.BusID]Bus)}
}

func (s *InMemoryBusStore) Create(_ context.Context, bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.buses[bus.ID]; exists {
		return sentinel.ErrConflict
	}
	s.buses[bus.ID] = *bus
	return nil
}

func (s *InMemoryBusStore) FindByID(_ context.Context, busID id.BusID) (*Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bus, ok := s.buses[busID]
	if !ok || bus.Lifecycle == LifecycleDeleted {
		return nil, sentinel.ErrNotFound
	}
	copied := bus
	return &copied, nil
}

func (s *InMemoryBusStore) UpdateCapacity(_ context.Context, busID id.BusID, capacity int, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bus, ok := s.buses[busID]
	if !ok || bus.Lifecycle == LifecycleDeleted {
		return sentinel.ErrNotFound
	}
	bus.Capacity = capacity
	bus.UpdatedAt = updatedAt
	s.buses[busID] = bus
	return nil
}

func (s *InMemoryBusStore) SetActive(_ context.Context, busID id.BusID, active bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bus, ok := s.buses[busID]
	if !ok || bus.Lifecycle == LifecycleDeleted {
		return sentinel.ErrNotFound
	}
	bus.Active = active
	bus.UpdatedAt = updatedAt
	s.buses[busID] = bus
	return nil
}

func (s *InMemoryBusStore) SoftDelete(_ context.Context, busID id.BusID, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bus, ok := s.buses[busID]
	if !ok || bus.Lifecycle == LifecycleDeleted {
		return sentinel.ErrNotFound
	}
	bus.Lifecycle = LifecycleDeleted
	bus.DeletedAt = &deletedAt
	bus.UpdatedAt = deletedAt
	s.buses[busID] = bus
	return nil
}

// Snapshot implements storetx.Snapshotter.
func (s *InMemoryBusStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make(map[id.BusID]Bus, len(s.buses))
	for k, v := range s.buses {
		copied[k] = v
	}
	return copied
}

// Restore implements storetx.Snapshotter.
func (s *InMemoryBusStore) Restore(state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses = state.(map[id.BusID]Bus)
}
