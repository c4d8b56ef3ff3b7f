package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"schoolbus/internal/audit"
	"schoolbus/internal/platform/storetx"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

// countStub satisfies ActiveAssignmentCounter with a fixed count.
type countStub struct {
	count int
	err   error
}

func (c *countStub) CountActiveForBus(context.Context, id.BusID) (int, error) {
	return c.count, c.err
}

// =============================================================================
// Student Service Test Suite
// =============================================================================

type StudentServiceSuite struct {
	suite.Suite
	students *InMemoryStudentStore
	trail    *audit.InMemoryStore
	service  *StudentService
}

func TestStudentServiceSuite(t *testing.T) {
	suite.Run(t, new(StudentServiceSuite))
}

func (s *StudentServiceSuite) SetupTest() {
	s.students = NewInMemoryStudentStore()
	s.trail = audit.NewInMemoryStore()
	runner := storetx.NewMemory(s.students, s.trail)
	s.service = NewStudentService(s.students, audit.NewPublisher(s.trail), runner)
}

func (s *StudentServiceSuite) TestApprove() {
	ctx := context.Background()
	districtID := id.DistrictID(uuid.New())

	s.Run("creates an active student and audits it", func() {
		student, err := s.service.Approve(ctx, "EXT-1001", "user-1", districtID)
		s.Require().NoError(err)
		s.Equal(StudentStatusActive, student.Status)
		s.Equal(LifecycleActive, student.Lifecycle)
		s.Equal("EXT-1001", student.ExternalStudentID)

		events, err := s.trail.ListByEntity(ctx, "student", student.ID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionStudentApproved, events[0].Action)
		s.NotEmpty(events[0].After)
	})

	s.Run("rejects blank external id", func() {
		_, err := s.service.Approve(ctx, "   ", "user-1", districtID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects nil district", func() {
		_, err := s.service.Approve(ctx, "EXT-1002", "user-1", id.DistrictID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate external id is a conflict", func() {
		_, err := s.service.Approve(ctx, "EXT-2000", "user-2", districtID)
		s.Require().NoError(err)

		_, err = s.service.Approve(ctx, "EXT-2000", "user-3", districtID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *StudentServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("unknown student is not found", func() {
		_, err := s.service.Get(ctx, id.StudentID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns the created student", func() {
		created, err := s.service.Approve(ctx, "EXT-3000", "user-1", id.DistrictID(uuid.New()))
		s.Require().NoError(err)

		got, err := s.service.Get(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, got.ID)
	})
}

func (s *StudentServiceSuite) TestDeactivate() {
	ctx := context.Background()

	s.Run("soft-deletes and hides the student", func() {
		student, err := s.service.Approve(ctx, "EXT-4000", "user-1", id.DistrictID(uuid.New()))
		s.Require().NoError(err)

		s.Require().NoError(s.service.Deactivate(ctx, student.ID))

		_, err = s.service.Get(ctx, student.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		events, err := s.trail.ListByEntity(ctx, "student", student.ID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(audit.ActionStudentDeactivated, events[1].Action)
	})

	s.Run("unknown student is not found", func() {
		err := s.service.Deactivate(ctx, id.StudentID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Bus Service Test Suite
// =============================================================================

type BusServiceSuite struct {
	suite.Suite
	buses   *InMemoryBusStore
	counter *countStub
	trail   *audit.InMemoryStore
	service *BusService
}

func TestBusServiceSuite(t *testing.T) {
	suite.Run(t, new(BusServiceSuite))
}

func (s *BusServiceSuite) SetupTest() {
	s.buses = NewInMemoryBusStore()
	s.counter = &countStub{}
	s.trail = audit.NewInMemoryStore()
	runner := storetx.NewMemory(s.buses, s.trail)
	s.service = NewBusService(s.buses, s.counter, audit.NewPublisher(s.trail), runner)
}

func (s *BusServiceSuite) seedBus(capacity int) *Bus {
	now := time.Now()
	bus := &Bus{
		ID:        id.BusID(uuid.New()),
		Code:      "BUS-42",
		Capacity:  capacity,
		Active:    true,
		Lifecycle: LifecycleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.buses.Create(context.Background(), bus))
	return bus
}

func (s *BusServiceSuite) TestReduceCapacity() {
	ctx := context.Background()

	s.Run("rejects non-positive capacity", func() {
		_, err := s.service.ReduceCapacity(ctx, id.BusID(uuid.New()), 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown bus is not found", func() {
		_, err := s.service.ReduceCapacity(ctx, id.BusID(uuid.New()), 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reduction below active assignment count is a conflict", func() {
		bus := s.seedBus(40)
		s.counter.count = 30

		_, err := s.service.ReduceCapacity(ctx, bus.ID, 25)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		unchanged, err := s.buses.FindByID(ctx, bus.ID)
		s.Require().NoError(err)
		s.Equal(40, unchanged.Capacity)
	})

	s.Run("reduction above the active count succeeds", func() {
		bus := s.seedBus(40)
		s.counter.count = 30

		updated, err := s.service.ReduceCapacity(ctx, bus.ID, 35)
		s.Require().NoError(err)
		s.Equal(35, updated.Capacity)

		events, err := s.trail.ListByEntity(ctx, "bus", bus.ID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionBusCapacityReduced, events[0].Action)
	})

	s.Run("raising capacity skips the assignment count check", func() {
		bus := s.seedBus(40)
		s.counter.err = dErrors.New(dErrors.CodeInternal, "should not be called")

		updated, err := s.service.ReduceCapacity(ctx, bus.ID, 50)
		s.Require().NoError(err)
		s.Equal(50, updated.Capacity)
		s.counter.err = nil
	})
}

func (s *BusServiceSuite) TestDeactivate() {
	ctx := context.Background()

	s.Run("marks the bus inactive", func() {
		bus := s.seedBus(40)

		updated, err := s.service.Deactivate(ctx, bus.ID)
		s.Require().NoError(err)
		s.False(updated.Active)
	})

	s.Run("second deactivation is a conflict", func() {
		bus := s.seedBus(40)
		_, err := s.service.Deactivate(ctx, bus.ID)
		s.Require().NoError(err)

		_, err = s.service.Deactivate(ctx, bus.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *BusServiceSuite) TestDelete() {
	ctx := context.Background()

	s.Run("rejected while active assignments reference the bus", func() {
		bus := s.seedBus(40)
		s.counter.count = 3

		err := s.service.Delete(ctx, bus.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("succeeds once no active assignments remain", func() {
		bus := s.seedBus(40)
		s.counter.count = 0

		s.Require().NoError(s.service.Delete(ctx, bus.ID))

		_, err := s.buses.FindByID(ctx, bus.ID)
		s.Require().Error(err)
	})
}
