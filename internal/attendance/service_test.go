package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"schoolbus/internal/attendance/mocks"
	"schoolbus/internal/audit"
	"schoolbus/internal/platform/storetx"
	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

func TestDateOnly(t *testing.T) {
	instant := time.Date(2026, 3, 14, 15, 9, 26, 535, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), DateOnly(instant))
}

func TestSessionKeyNormalizesDate(t *testing.T) {
	busID := id.BusID(uuid.New())
	morning := Session{BusID: busID, AttendanceDate: time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC), AttendanceType: TypeArrival}
	evening := Session{BusID: busID, AttendanceDate: time.Date(2026, 3, 14, 18, 45, 0, 0, time.UTC), AttendanceType: TypeArrival}
	assert.Equal(t, morning.Key(), evening.Key())
}

type AttendanceServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	sessions     *InMemorySessionStore
	records      *InMemoryRecordStore
	students     *registry.InMemoryStudentStore
	buses        *registry.InMemoryBusStore
	directory    *mocks.MockDirectory
	trail        *audit.InMemoryStore
	service      *Service
	periodExists bool
}

func TestAttendanceServiceSuite(t *testing.T) {
	suite.Run(t, new(AttendanceServiceSuite))
}

func (s *AttendanceServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = NewInMemorySessionStore()
	s.records = NewInMemoryRecordStore()
	s.students = registry.NewInMemoryStudentStore()
	s.buses = registry.NewInMemoryBusStore()
	s.directory = mocks.NewMockDirectory(s.ctrl)
	s.periodExists = true
	s.directory.EXPECT().PeriodExists(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, id.PeriodID) (bool, error) {
			return s.periodExists, nil
		}).AnyTimes()
	s.trail = audit.NewInMemoryStore()
	runner := storetx.NewMemory(s.sessions, s.records, s.students, s.buses, s.trail)
	s.service = NewService(s.sessions, s.records, s.students, s.buses, s.directory,
		audit.NewPublisher(s.trail), runner)
}

func (s *AttendanceServiceSuite) seedStudent() *registry.Student {
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
	return student
}

func (s *AttendanceServiceSuite) seedBus() *registry.Bus {
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

func (s *AttendanceServiceSuite) params(busID id.BusID, offline bool) CreateSessionParams {
	return CreateSessionParams{
		SupervisorID:   "supervisor-1",
		BusID:          busID,
		PeriodID:       id.PeriodID(uuid.New()),
		Date:           time.Now(),
		Type:           TypeArrival,
		CreatedOffline: offline,
	}
}

func (s *AttendanceServiceSuite) TestCreateSession() {
	ctx := context.Background()

	s.Run("online session is born synced", func() {
		s.periodExists = true
		bus := s.seedBus()

		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)
		s.Equal(SyncSynced, sess.SyncStatus)
		s.NotNil(sess.SyncedAt)
		s.False(sess.CreatedOffline)
	})

	s.Run("offline session is born pending", func() {
		s.periodExists = true
		bus := s.seedBus()

		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, true))
		s.Require().NoError(err)
		s.Equal(SyncPending, sess.SyncStatus)
		s.Nil(sess.SyncedAt)
		s.True(sess.CreatedOffline)
	})

	s.Run("duplicate key is a conflict regardless of sync status", func() {
		s.periodExists = true
		bus := s.seedBus()

		_, err := s.service.CreateSession(ctx, s.params(bus.ID, true))
		s.Require().NoError(err)

		_, err = s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same bus and date but other type is a distinct key", func() {
		s.periodExists = true
		bus := s.seedBus()

		_, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)

		p := s.params(bus.ID, false)
		p.Type = TypeReturn
		_, err = s.service.CreateSession(ctx, p)
		s.Require().NoError(err)
	})

	s.Run("unknown period is not found", func() {
		s.periodExists = false
		bus := s.seedBus()

		_, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown bus is not found", func() {
		_, err := s.service.CreateSession(ctx, s.params(id.BusID(uuid.New()), false))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("validates type", func() {
		bus := s.seedBus()
		p := s.params(bus.ID, false)
		p.Type = AttendanceType("midday")
		_, err := s.service.CreateSession(ctx, p)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AttendanceServiceSuite) TestSyncTransitions() {
	ctx := context.Background()

	createOffline := func() *Session {
		s.periodExists = true
		bus := s.seedBus()
		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, true))
		s.Require().NoError(err)
		return sess
	}

	s.Run("pending syncing synced", func() {
		sess := createOffline()

		syncing, err := s.service.MarkSyncing(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(SyncSyncing, syncing.SyncStatus)

		synced, err := s.service.MarkSynced(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(SyncSynced, synced.SyncStatus)
		s.NotNil(synced.SyncedAt)
	})

	s.Run("failed sessions can retry", func() {
		sess := createOffline()

		_, err := s.service.MarkSyncing(ctx, sess.ID)
		s.Require().NoError(err)
		failed, err := s.service.MarkFailed(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(SyncFailed, failed.SyncStatus)

		retrying, err := s.service.MarkSyncing(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(SyncSyncing, retrying.SyncStatus)
	})

	s.Run("synced is terminal", func() {
		sess := createOffline()
		_, err := s.service.MarkSyncing(ctx, sess.ID)
		s.Require().NoError(err)
		_, err = s.service.MarkSynced(ctx, sess.ID)
		s.Require().NoError(err)

		_, err = s.service.MarkSyncing(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("synced and failed require syncing first", func() {
		sess := createOffline()

		_, err := s.service.MarkSynced(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.MarkFailed(ctx, sess.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *AttendanceServiceSuite) TestSyncOffline() {
	ctx := context.Background()

	s.Run("promotes the session in place", func() {
		s.periodExists = true
		bus := s.seedBus()
		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, true))
		s.Require().NoError(err)

		synced, err := s.service.SyncOffline(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(sess.ID, synced.ID, "identity survives the promotion")
		s.Equal(SyncSynced, synced.SyncStatus)
	})

	s.Run("conflicting key marks the session failed", func() {
		s.periodExists = true
		bus := s.seedBus()

		winner, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)

		// An offline session captured on another device before the winner
		// claimed the key; it never got the key slot.
		loser := Session{
			ID:             id.SessionID(uuid.New()),
			SupervisorID:   "supervisor-2",
			BusID:          bus.ID,
			PeriodID:       winner.PeriodID,
			AttendanceDate: winner.AttendanceDate,
			AttendanceType: winner.AttendanceType,
			SyncStatus:     SyncPending,
			CreatedOffline: true,
			CreatedAt:      time.Now(),
		}
		s.sessions.sessions[loser.ID] = loser

		_, err = s.service.SyncOffline(ctx, loser.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stranded, err := s.sessions.FindByID(ctx, loser.ID)
		s.Require().NoError(err)
		s.Equal(SyncFailed, stranded.SyncStatus, "record list is preserved for manual merge")
	})
}

func (s *AttendanceServiceSuite) TestSyncAllPending() {
	ctx := context.Background()
	s.periodExists = true

	for range 3 {
		bus := s.seedBus()
		_, err := s.service.CreateSession(ctx, s.params(bus.ID, true))
		s.Require().NoError(err)
	}

	synced, err := s.service.SyncAllPending(ctx, 100)
	s.Require().NoError(err)
	s.Equal(3, synced)

	remaining, err := s.sessions.ListPendingOffline(ctx, 100)
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *AttendanceServiceSuite) TestRecords() {
	ctx := context.Background()

	s.Run("appends and lists records", func() {
		s.periodExists = true
		bus := s.seedBus()
		student := s.seedStudent()
		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)

		_, err = s.service.AddRecord(ctx, sess.ID, student.ID, RecordPresent, "")
		s.Require().NoError(err)
		_, err = s.service.AddRecord(ctx, sess.ID, student.ID, RecordLate, "second bell")
		s.Require().NoError(err)

		records, err := s.service.ListRecords(ctx, sess.ID)
		s.Require().NoError(err)
		s.Require().Len(records, 2, "the record list is an append log, duplicates allowed")
		s.Equal(RecordPresent, records[0].Status)
		s.Equal(RecordLate, records[1].Status)
	})

	s.Run("validates status", func() {
		s.periodExists = true
		bus := s.seedBus()
		student := s.seedStudent()
		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)

		_, err = s.service.AddRecord(ctx, sess.ID, student.ID, RecordStatus("tardy"), "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown session or student is not found", func() {
		s.periodExists = true
		bus := s.seedBus()
		student := s.seedStudent()
		sess, err := s.service.CreateSession(ctx, s.params(bus.ID, false))
		s.Require().NoError(err)

		_, err = s.service.AddRecord(ctx, id.SessionID(uuid.New()), student.ID, RecordPresent, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.AddRecord(ctx, sess.ID, id.StudentID(uuid.New()), RecordPresent, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
