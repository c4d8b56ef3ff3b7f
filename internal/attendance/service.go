package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"schoolbus/internal/audit"
	"schoolbus/internal/platform/metrics"
	"schoolbus/internal/platform/storetx"
	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
	"schoolbus/pkg/platform/sentinel"
	"schoolbus/pkg/requestcontext"
)

// Students is the slice of the student registry this reconciler needs.
type Students interface {
	FindByID(ctx context.Context, studentID id.StudentID) (*registry.Student, error)
}

// Buses is the slice of the bus registry this reconciler needs.
type Buses interface {
	FindByID(ctx context.Context, busID id.BusID) (*registry.Bus, error)
}

// Directory resolves reference data owned outside this service.
type Directory interface {
	PeriodExists(ctx context.Context, periodID id.PeriodID) (bool, error)
}

// AuditPublisher is the slice of the audit trail this reconciler writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	sessions  SessionStore
	records   RecordStore
	students  Students
	buses     Buses
	directory Directory
	auditor   AuditPublisher
	tx        storetx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(sessions SessionStore, records RecordStore, students Students, buses Buses, directory Directory, auditor AuditPublisher, tx storetx.Runner, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		records:   records,
		students:  students,
		buses:     buses,
		directory: directory,
		auditor:   auditor,
		tx:        tx,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSessionParams describes one attendance run to open.
type CreateSessionParams struct {
	SupervisorID   string
	BusID          id.BusID
	PeriodID       id.PeriodID
	LocationID     *id.LocationID
	Date           time.Time
	Type           AttendanceType
	CreatedOffline bool
}

func (p CreateSessionParams) validate() error {
	if p.SupervisorID == "" {
		return dErrors.New(dErrors.CodeValidation, "supervisor id is required")
	}
	if p.BusID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "bus id is required")
	}
	if p.PeriodID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "period id is required")
	}
	if p.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "attendance date is required")
	}
	if !p.Type.Valid() {
		return dErrors.New(dErrors.CodeValidation, "attendance type must be arrival or return")
	}
	return nil
}

// CreateSession opens a session for a (bus, date, type) key. Online sessions
// are born Synced; offline ones are born Pending and reconciled later. The
// duplicate-key check is done as a fast path here, but the store's unique
// index is the real enforcement under concurrency.
func (s *Service) CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var created *Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.buses.FindByID(txCtx, params.BusID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "bus not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
		}
		ok, err := s.directory.PeriodExists(txCtx, params.PeriodID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve period")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "period not found")
		}

		key := Key{BusID: params.BusID, Date: DateOnly(params.Date), Type: params.Type}
		if _, err := s.sessions.FindByKey(txCtx, key); err == nil {
			return dErrors.New(dErrors.CodeConflict, "session already exists for this bus, date and type")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing session")
		}

		sess := &Session{
			ID:             id.SessionID(uuid.New()),
			SupervisorID:   params.SupervisorID,
			BusID:          params.BusID,
			PeriodID:       params.PeriodID,
			LocationID:     params.LocationID,
			AttendanceDate: DateOnly(params.Date),
			AttendanceType: params.Type,
			CreatedOffline: params.CreatedOffline,
			CreatedAt:      now,
		}
		if params.CreatedOffline {
			sess.SyncStatus = SyncPending
		} else {
			sess.SyncStatus = SyncSynced
			syncedAt := now
			sess.SyncedAt = &syncedAt
		}
		if err := s.sessions.Create(txCtx, sess); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "session already exists for this bus, date and type")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
		}
		created = sess

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionSessionCreated,
			EntityType: "attendance_session",
			EntityID:   sess.ID.String(),
			After:      audit.Snapshot(sess),
		})
	})
	if err != nil {
		return nil, err
	}

	origin := "online"
	if params.CreatedOffline {
		origin = "offline"
	}
	s.metrics.IncSessionsCreated(origin)
	return created, nil
}

// MarkSyncing begins a sync attempt. Synced is terminal; every other status
// may enter Syncing, so a Failed session can be retried.
func (s *Service) MarkSyncing(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	return s.transition(ctx, sessionID, func(sess *Session) error {
		if !sess.CanMarkSyncing() {
			return dErrors.New(dErrors.CodeConflict, "session is already synced")
		}
		sess.SyncStatus = SyncSyncing
		return nil
	}, "syncing")
}

// MarkSynced completes a sync attempt and stamps syncedAt.
func (s *Service) MarkSynced(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	return s.transition(ctx, sessionID, func(sess *Session) error {
		if sess.SyncStatus != SyncSyncing {
			return dErrors.New(dErrors.CodeConflict, "session is not syncing")
		}
		sess.SyncStatus = SyncSynced
		syncedAt := requestcontext.Now(ctx)
		sess.SyncedAt = &syncedAt
		return nil
	}, "synced")
}

// MarkFailed records a failed sync attempt; the session stays retryable.
func (s *Service) MarkFailed(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	return s.transition(ctx, sessionID, func(sess *Session) error {
		if sess.SyncStatus != SyncSyncing {
			return dErrors.New(dErrors.CodeConflict, "session is not syncing")
		}
		sess.SyncStatus = SyncFailed
		return nil
	}, "failed")
}

func (s *Service) transition(ctx context.Context, sessionID id.SessionID, apply func(*Session) error, outcome string) (*Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "session id is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var updated *Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.findSession(txCtx, sessionID)
		if err != nil {
			return err
		}
		before := *sess
		if err := apply(sess); err != nil {
			return err
		}
		if err := s.sessions.UpdateSyncStatus(txCtx, sessionID, sess.SyncStatus, sess.SyncedAt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
		}
		updated = sess

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionSessionSynced,
			EntityType: "attendance_session",
			EntityID:   sess.ID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(sess),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSessionSync(outcome)
	return updated, nil
}

// AddRecord appends one per-student mark. The record list is an append log:
// the same student may be marked more than once per session.
func (s *Service) AddRecord(ctx context.Context, sessionID id.SessionID, studentID id.StudentID, status RecordStatus, notes string) (*Record, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "session id is required")
	}
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown attendance status")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var created *Record
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.findSession(txCtx, sessionID); err != nil {
			return err
		}
		if _, err := s.students.FindByID(txCtx, studentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}

		r := &Record{
			ID:         id.RecordID(uuid.New()),
			SessionID:  sessionID,
			StudentID:  studentID,
			Status:     status,
			Notes:      notes,
			RecordedAt: now,
			RecordedBy: actor,
		}
		if err := s.records.Append(txCtx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append record")
		}
		created = r

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionRecordAdded,
			EntityType: "attendance_record",
			EntityID:   r.ID.String(),
			After:      audit.Snapshot(r),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetSession returns one session by id.
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "session id is required")
	}
	return s.findSession(ctx, sessionID)
}

// ListRecords returns a session's records in recording order.
func (s *Service) ListRecords(ctx context.Context, sessionID id.SessionID) ([]Record, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "session id is required")
	}
	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

func (s *Service) findSession(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return sess, nil
}
