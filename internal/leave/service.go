package leave

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

// Students is the slice of the student registry this manager needs.
type Students interface {
	FindByID(ctx context.Context, studentID id.StudentID) (*registry.Student, error)
	UpdateStatus(ctx context.Context, studentID id.StudentID, status registry.StudentStatus, updatedAt time.Time) error
}

// AuditPublisher is the slice of the audit trail this manager writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	leaves   Store
	students Students
	auditor  AuditPublisher
	tx       storetx.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(leaves Store, students Students, auditor AuditPublisher, tx storetx.Runner, opts ...Option) *Service {
	s := &Service{
		leaves:   leaves,
		students: students,
		auditor:  auditor,
		tx:       tx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries a leave request. Dates are inclusive calendar days.
type CreateParams struct {
	StudentID     id.StudentID
	StartDate     time.Time
	EndDate       time.Time
	Reason        string
	AttachmentURL string
}

func (p CreateParams) validate() error {
	if p.StudentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start and end dates are required")
	}
	if dateOnly(p.EndDate).Before(dateOnly(p.StartDate)) {
		return dErrors.New(dErrors.CodeValidation, "end date must not be before start date")
	}
	return nil
}

// Create registers a pending leave. The student's status is untouched until
// approval; the overlap check spans all non-cancelled leaves, pending ones
// included.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Leave, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var created *Leave
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.students.FindByID(txCtx, params.StudentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}

		existing, err := s.leaves.ListNonCancelledByStudent(txCtx, params.StudentID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leaves")
		}
		for i := range existing {
			if existing[i].Overlaps(params.StartDate, params.EndDate) {
				return dErrors.New(dErrors.CodeConflict, "leave overlaps an existing leave")
			}
		}

		l := &Leave{
			ID:            id.LeaveID(uuid.New()),
			StudentID:     params.StudentID,
			StartDate:     dateOnly(params.StartDate),
			EndDate:       dateOnly(params.EndDate),
			Reason:        params.Reason,
			AttachmentURL: params.AttachmentURL,
			CreatedAt:     now,
			CreatedBy:     actor,
		}
		if err := s.leaves.Create(txCtx, l); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create leave")
		}
		created = l

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionLeaveCreated,
			EntityType: "leave",
			EntityID:   l.ID.String(),
			After:      audit.Snapshot(l),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLeavesCreated()
	return created, nil
}

// Approve marks a pending leave approved. When the window already contains
// today the student is moved to OnLeave immediately; otherwise the status
// change waits for reads via IsActiveAt.
func (s *Service) Approve(ctx context.Context, leaveID id.LeaveID) (*Leave, error) {
	if leaveID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "leave id is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var updated *Leave
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.findLeave(txCtx, leaveID)
		if err != nil {
			return err
		}
		if l.IsCancelled {
			return dErrors.New(dErrors.CodeConflict, "leave is cancelled")
		}
		if l.IsApproved {
			return dErrors.New(dErrors.CodeConflict, "leave is already approved")
		}

		before := *l
		l.IsApproved = true
		l.ApprovedAt = &now
		l.ApprovedBy = actor
		if err := s.leaves.Update(txCtx, l); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve leave")
		}

		if l.IsActiveAt(now) {
			if err := s.moveStudent(txCtx, l.StudentID, registry.EventLeaveStarted, now); err != nil {
				return err
			}
		}
		updated = l

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionLeaveApproved,
			EntityType: "leave",
			EntityID:   l.ID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(l),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLeavesApproved()
	return updated, nil
}

// Cancel terminates a leave. Pending leaves can be cancelled too. When the
// cancelled leave was governing the student right now, and the student is
// still OnLeave, the status is restored to Active.
func (s *Service) Cancel(ctx context.Context, leaveID id.LeaveID, reason string) (*Leave, error) {
	if leaveID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "leave id is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var updated *Leave
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		l, err := s.findLeave(txCtx, leaveID)
		if err != nil {
			return err
		}
		if l.IsCancelled {
			return dErrors.New(dErrors.CodeConflict, "leave is already cancelled")
		}

		wasActive := l.IsActiveAt(now)
		before := *l
		l.IsCancelled = true
		l.CancelledAt = &now
		l.CancelledBy = actor
		l.CancelReason = reason
		if err := s.leaves.Update(txCtx, l); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel leave")
		}

		if wasActive {
			student, err := s.students.FindByID(txCtx, l.StudentID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
			}
			if student.Status == registry.StudentStatusOnLeave {
				if err := s.moveStudent(txCtx, l.StudentID, registry.EventLeaveEnded, now); err != nil {
					return err
				}
			}
		}
		updated = l

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionLeaveCancelled,
			EntityType: "leave",
			EntityID:   l.ID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(l),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLeavesCancelled()
	return updated, nil
}

// Get returns one leave by id.
func (s *Service) Get(ctx context.Context, leaveID id.LeaveID) (*Leave, error) {
	if leaveID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "leave id is required")
	}
	return s.findLeave(ctx, leaveID)
}

// ListForStudent returns the student's non-cancelled leaves.
func (s *Service) ListForStudent(ctx context.Context, studentID id.StudentID) ([]Leave, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	leaves, err := s.leaves.ListNonCancelledByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leaves")
	}
	return leaves, nil
}

func (s *Service) findLeave(ctx context.Context, leaveID id.LeaveID) (*Leave, error) {
	l, err := s.leaves.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "leave not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load leave")
	}
	return l, nil
}

// moveStudent applies a status event when the student's current status
// allows it. A disallowed transition is skipped, not failed: a suspension in
// force outranks the leave, and the suspension's own lifecycle restores the
// status later.
func (s *Service) moveStudent(ctx context.Context, studentID id.StudentID, event registry.StatusEvent, now time.Time) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}
	if !registry.CanTransition(student.Status, event) {
		s.logger.InfoContext(ctx, "leave status change skipped",
			"student_id", studentID.String(), "status", string(student.Status), "event", string(event))
		return nil
	}
	next, err := registry.TransitionStatus(student.Status, event)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "student status transition rejected")
	}
	if err := s.students.UpdateStatus(ctx, studentID, next, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student status")
	}
	return nil
}
