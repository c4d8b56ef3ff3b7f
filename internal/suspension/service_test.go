package suspension

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"schoolbus/internal/assignment"
	"schoolbus/internal/audit"
	"schoolbus/internal/platform/storetx"
	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

// failingAuditor forces a rollback after all writes succeed.
type failingAuditor struct{}

func (failingAuditor) Emit(context.Context, audit.Event) error {
	return dErrors.New(dErrors.CodeInternal, "audit sink unavailable")
}

type SuspensionServiceSuite struct {
	suite.Suite
	suspensions *InMemoryStore
	students    *registry.InMemoryStudentStore
	buses       *registry.InMemoryBusStore
	assignments *assignment.InMemoryStore
	trail       *audit.InMemoryStore
	runner      *storetx.Memory
	service     *Service
}

func TestSuspensionServiceSuite(t *testing.T) {
	suite.Run(t, new(SuspensionServiceSuite))
}

func (s *SuspensionServiceSuite) SetupTest() {
	s.suspensions = NewInMemoryStore()
	s.students = registry.NewInMemoryStudentStore()
	s.buses = registry.NewInMemoryBusStore()
	s.assignments = assignment.NewInMemoryStore()
	s.trail = audit.NewInMemoryStore()
	s.runner = storetx.NewMemory(s.suspensions, s.students, s.buses, s.assignments, s.trail)
	s.service = NewService(s.suspensions, s.students, s.buses, s.assignments,
		audit.NewPublisher(s.trail), s.runner)
}

func (s *SuspensionServiceSuite) seedStudent(status registry.StudentStatus) *registry.Student {
	now := time.Now()
	student := &registry.Student{
		ID:                id.StudentID(uuid.New()),
		ExternalStudentID: uuid.NewString(),
		DistrictID:        id.DistrictID(uuid.New()),
		Status:            status,
		Lifecycle:         registry.LifecycleActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.Require().NoError(s.students.Create(context.Background(), student))
	return student
}

func (s *SuspensionServiceSuite) seedBus() *registry.Bus {
	now := time.Now()
	bus := &registry.Bus{
		ID:        id.BusID(uuid.New()),
		Code:      "BUS-" + uuid.NewString()[:8],
		Capacity:  40,
		Active:    true,
		Lifecycle: registry.LifecycleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.buses.Create(context.Background(), bus))
	return bus
}

func (s *SuspensionServiceSuite) seedAssignment(studentID id.StudentID, busID id.BusID) *assignment.Assignment {
	a := &assignment.Assignment{
		ID:            id.AssignmentID(uuid.New()),
		StudentID:     studentID,
		BusID:         busID,
		TransportType: assignment.TransportBoth,
		IsActive:      true,
		AssignedAt:    time.Now(),
	}
	s.Require().NoError(s.assignments.Create(context.Background(), a))
	return a
}

func (s *SuspensionServiceSuite) TestSuspend() {
	ctx := context.Background()

	s.Run("suspends an assigned student atomically", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		bus := s.seedBus()
		active := s.seedAssignment(student.ID, bus.ID)

		susp, err := s.service.Suspend(ctx, student.ID, "behavioral incident")
		s.Require().NoError(err)
		s.Require().NotNil(susp.BusID)
		s.Equal(bus.ID, *susp.BusID, "suspension snapshots the assigned bus")
		s.False(susp.IsReactivated)

		updated, err := s.students.FindByID(ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(registry.StudentStatusSuspended, updated.Status)

		deactivated, err := s.assignments.FindByID(ctx, active.ID)
		s.Require().NoError(err)
		s.False(deactivated.IsActive, "assignment is deactivated, not deleted")
		s.NotNil(deactivated.DeactivatedAt)
	})

	s.Run("suspends an unassigned student with a nil bus snapshot", func() {
		student := s.seedStudent(registry.StudentStatusActive)

		susp, err := s.service.Suspend(ctx, student.ID, "no assignment yet")
		s.Require().NoError(err)
		s.Nil(susp.BusID)
	})

	s.Run("suspends an on-leave student", func() {
		student := s.seedStudent(registry.StudentStatusOnLeave)

		_, err := s.service.Suspend(ctx, student.ID, "suspension outranks leave")
		s.Require().NoError(err)

		updated, err := s.students.FindByID(ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(registry.StudentStatusSuspended, updated.Status)
	})

	s.Run("double suspension is a conflict", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		_, err := s.service.Suspend(ctx, student.ID, "first")
		s.Require().NoError(err)

		_, err = s.service.Suspend(ctx, student.ID, "second")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown student is not found", func() {
		_, err := s.service.Suspend(ctx, id.StudentID(uuid.New()), "reason")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("audit failure rolls everything back", func() {
		broken := NewService(s.suspensions, s.students, s.buses, s.assignments, failingAuditor{}, s.runner)
		student := s.seedStudent(registry.StudentStatusActive)
		bus := s.seedBus()
		active := s.seedAssignment(student.ID, bus.ID)

		_, err := broken.Suspend(ctx, student.ID, "doomed")
		s.Require().Error(err)

		unchanged, err := s.students.FindByID(ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(registry.StudentStatusActive, unchanged.Status, "status write must roll back")

		stillActive, err := s.assignments.FindByID(ctx, active.ID)
		s.Require().NoError(err)
		s.True(stillActive.IsActive, "assignment deactivation must roll back")

		_, err = s.suspensions.FindUnresolvedByStudent(ctx, student.ID)
		s.Require().Error(err, "suspension row must roll back")
	})
}

func (s *SuspensionServiceSuite) TestReactivate() {
	ctx := context.Background()

	suspend := func(student *registry.Student) *Suspension {
		susp, err := s.service.Suspend(ctx, student.ID, "reason")
		s.Require().NoError(err)
		return susp
	}

	s.Run("reactivates without a new bus", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		susp := suspend(student)

		resolved, err := s.service.Reactivate(ctx, susp.ID, nil, "served time")
		s.Require().NoError(err)
		s.True(resolved.IsReactivated)
		s.Nil(resolved.NewBusID)

		updated, err := s.students.FindByID(ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(registry.StudentStatusActive, updated.Status)

		_, err = s.assignments.FindActiveByStudent(ctx, student.ID)
		s.Require().Error(err, "the old assignment is never revived")
	})

	s.Run("reactivates onto a new bus with a fresh assignment", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		oldBus := s.seedBus()
		old := s.seedAssignment(student.ID, oldBus.ID)
		susp := suspend(student)

		newBus := s.seedBus()
		resolved, err := s.service.Reactivate(ctx, susp.ID, &newBus.ID, "")
		s.Require().NoError(err)
		s.Require().NotNil(resolved.NewBusID)
		s.Equal(newBus.ID, *resolved.NewBusID)

		active, err := s.assignments.FindActiveByStudent(ctx, student.ID)
		s.Require().NoError(err)
		s.NotEqual(old.ID, active.ID, "a brand-new assignment is created")
		s.Equal(newBus.ID, active.BusID)
		s.Equal(assignment.TransportBoth, active.TransportType)
	})

	s.Run("second reactivation is a conflict", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		susp := suspend(student)

		_, err := s.service.Reactivate(ctx, susp.ID, nil, "")
		s.Require().NoError(err)

		_, err = s.service.Reactivate(ctx, susp.ID, nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown bus is not found", func() {
		student := s.seedStudent(registry.StudentStatusActive)
		susp := suspend(student)
		missing := id.BusID(uuid.New())

		_, err := s.service.Reactivate(ctx, susp.ID, &missing, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown suspension is not found", func() {
		_, err := s.service.Reactivate(ctx, id.SuspensionID(uuid.New()), nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
