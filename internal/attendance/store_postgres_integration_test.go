//go:build integration

package attendance_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"schoolbus/internal/attendance"
	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
	"schoolbus/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	sessions *attendance.PostgresSessionStore
	records  *attendance.PostgresRecordStore
	students *registry.PostgresStudentStore
	buses    *registry.PostgresBusStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.sessions = attendance.NewPostgresSessionStore(s.postgres.DB)
	s.records = attendance.NewPostgresRecordStore(s.postgres.DB)
	s.students = registry.NewPostgresStudentStore(s.postgres.DB)
	s.buses = registry.NewPostgresBusStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) seedBus() id.BusID {
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
	return bus.ID
}

func (s *PostgresStoreSuite) seedStudent() id.StudentID {
	now := time.Now()
	student := &registry.Student{
		ID:                id.StudentID(uuid.New()),
		ExternalStudentID: uuid.NewString(),
		DistrictID:        id.DistrictID(uuid.New()),
		Status:            registry.StudentStatusActive,
		Lifecycle:         registry.LifecycleActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.Require().NoError(s.students.Create(context.Background(), student))
	return student.ID
}

func newSession(busID id.BusID, attendanceType attendance.AttendanceType, date time.Time) *attendance.Session {
	return &attendance.Session{
		ID:             id.SessionID(uuid.New()),
		SupervisorID:   "supervisor-1",
		BusID:          busID,
		PeriodID:       id.PeriodID(uuid.New()),
		AttendanceDate: attendance.DateOnly(date),
		AttendanceType: attendanceType,
		SyncStatus:     attendance.SyncPending,
		CreatedOffline: true,
		CreatedAt:      time.Now(),
	}
}

// TestConcurrentSessionKey verifies the (bus, date, type) unique constraint
// under the two-devices-race: many offline creates, one survivor.
func (s *PostgresStoreSuite) TestConcurrentSessionKey() {
	ctx := context.Background()
	busID := s.seedBus()
	date := time.Now()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.sessions.Create(ctx, newSession(busID, attendance.TypeArrival, date))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one session per key")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestKeyDimensions() {
	ctx := context.Background()
	busID := s.seedBus()
	otherBus := s.seedBus()
	today := time.Now()

	s.Require().NoError(s.sessions.Create(ctx, newSession(busID, attendance.TypeArrival, today)))

	s.Run("same bus and date, other type", func() {
		s.Require().NoError(s.sessions.Create(ctx, newSession(busID, attendance.TypeReturn, today)))
	})
	s.Run("same type and date, other bus", func() {
		s.Require().NoError(s.sessions.Create(ctx, newSession(otherBus, attendance.TypeArrival, today)))
	})
	s.Run("same bus and type, next day", func() {
		s.Require().NoError(s.sessions.Create(ctx, newSession(busID, attendance.TypeArrival, today.AddDate(0, 0, 1))))
	})

	found, err := s.sessions.FindByKey(ctx, attendance.Key{
		BusID: busID, Date: today, Type: attendance.TypeArrival,
	})
	s.Require().NoError(err)
	s.Equal(busID, found.BusID)
	s.Equal(attendance.TypeArrival, found.AttendanceType)
}

func (s *PostgresStoreSuite) TestListPendingOfflineFiltersAndOrders() {
	ctx := context.Background()
	date := time.Now()

	base := time.Now().Add(-time.Hour)
	var created []*attendance.Session
	for i := 0; i < 3; i++ {
		sess := newSession(s.seedBus(), attendance.TypeArrival, date)
		sess.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.sessions.Create(ctx, sess))
		created = append(created, sess)
	}

	// An online session and a synced offline one must not appear.
	online := newSession(s.seedBus(), attendance.TypeArrival, date)
	online.CreatedOffline = false
	online.SyncStatus = attendance.SyncSynced
	s.Require().NoError(s.sessions.Create(ctx, online))

	syncedAt := time.Now()
	s.Require().NoError(s.sessions.UpdateSyncStatus(ctx, created[1].ID, attendance.SyncSynced, &syncedAt))

	pending, err := s.sessions.ListPendingOffline(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(created[0].ID, pending[0].ID, "oldest first")
	s.Equal(created[2].ID, pending[1].ID)
}

func (s *PostgresStoreSuite) TestUpdateSyncStatusRoundTrip() {
	ctx := context.Background()
	sess := newSession(s.seedBus(), attendance.TypeArrival, time.Now())
	s.Require().NoError(s.sessions.Create(ctx, sess))

	s.Require().NoError(s.sessions.UpdateSyncStatus(ctx, sess.ID, attendance.SyncSyncing, nil))

	syncedAt := time.Now()
	s.Require().NoError(s.sessions.UpdateSyncStatus(ctx, sess.ID, attendance.SyncSynced, &syncedAt))

	found, err := s.sessions.FindByID(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(attendance.SyncSynced, found.SyncStatus)
	s.Require().NotNil(found.SyncedAt)

	err = s.sessions.UpdateSyncStatus(ctx, id.SessionID(uuid.New()), attendance.SyncSyncing, nil)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRecordsAppendLog() {
	ctx := context.Background()
	sess := newSession(s.seedBus(), attendance.TypeArrival, time.Now())
	s.Require().NoError(s.sessions.Create(ctx, sess))
	studentID := s.seedStudent()

	base := time.Now().Add(-time.Minute)
	for i, status := range []attendance.RecordStatus{attendance.RecordAbsent, attendance.RecordPresent} {
		s.Require().NoError(s.records.Append(ctx, &attendance.Record{
			ID:         id.RecordID(uuid.New()),
			SessionID:  sess.ID,
			StudentID:  studentID,
			Status:     status,
			RecordedAt: base.Add(time.Duration(i) * time.Second),
			RecordedBy: "supervisor-1",
		}))
	}

	log, err := s.records.ListBySession(ctx, sess.ID)
	s.Require().NoError(err)
	s.Require().Len(log, 2, "corrections append, never overwrite")
	s.Equal(attendance.RecordAbsent, log[0].Status)
	s.Equal(attendance.RecordPresent, log[1].Status)
}
