package suspension

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"schoolbus/internal/assignment"
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

// Buses is the slice of the bus registry this manager needs.
type Buses interface {
	FindByID(ctx context.Context, busID id.BusID) (*registry.Bus, error)
}

// Assignments is the slice of the assignment store this manager needs.
type Assignments interface {
	Create(ctx context.Context, a *assignment.Assignment) error
	FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*assignment.Assignment, error)
	Deactivate(ctx context.Context, assignmentID id.AssignmentID, at time.Time) error
}

// AuditPublisher is the slice of the audit trail this manager writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the suspend/reactivate transitions. Suspend is the one place
// Student, Assignment and Suspension change together; everything runs inside
// one unit of work so a mid-sequence failure leaves no partial state.
type Service struct {
	suspensions Store
	students    Students
	buses       Buses
	assignments Assignments
	auditor     AuditPublisher
	tx          storetx.Runner
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(suspensions Store, students Students, buses Buses, assignments Assignments, auditor AuditPublisher, tx storetx.Runner, opts ...Option) *Service {
	s := &Service{
		suspensions: suspensions,
		students:    students,
		buses:       buses,
		assignments: assignments,
		auditor:     auditor,
		tx:          tx,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suspend snapshots the student's current bus, creates the suspension,
// flips the student to Suspended, and deactivates (never deletes) the active
// assignment, all atomically.
func (s *Service) Suspend(ctx context.Context, studentID id.StudentID, reason string) (*Suspension, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var created *Suspension
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		student, err := s.students.FindByID(txCtx, studentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}

		nextStatus, err := registry.TransitionStatus(student.Status, registry.EventSuspended)
		if err != nil {
			return dErrors.New(dErrors.CodeConflict, "student is already suspended")
		}
		if _, err := s.suspensions.FindUnresolvedByStudent(txCtx, studentID); err == nil {
			return dErrors.New(dErrors.CodeConflict, "student already has an unresolved suspension")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing suspensions")
		}

		// Snapshot the active assignment's bus; the student may be unassigned.
		var busID *id.BusID
		active, err := s.assignments.FindActiveByStudent(txCtx, studentID)
		switch {
		case err == nil:
			snapshot := active.BusID
			busID = &snapshot
		case errors.Is(err, sentinel.ErrNotFound):
			active = nil
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active assignment")
		}

		susp := &Suspension{
			ID:          id.SuspensionID(uuid.New()),
			StudentID:   studentID,
			BusID:       busID,
			Reason:      reason,
			SuspendedAt: now,
			SuspendedBy: actor,
		}
		if err := s.suspensions.Create(txCtx, susp); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "student already has an unresolved suspension")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create suspension")
		}

		if err := s.students.UpdateStatus(txCtx, studentID, nextStatus, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student status")
		}
		if active != nil {
			if err := s.assignments.Deactivate(txCtx, active.ID, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate assignment")
			}
		}
		created = susp

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionStudentSuspended,
			EntityType: "suspension",
			EntityID:   susp.ID.String(),
			After:      audit.Snapshot(susp),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStudentsSuspended()
	return created, nil
}

// Reactivate resolves a suspension. When newBusID is given a brand-new
// active assignment is created (transport type Both); the assignment
// deactivated at suspension time is never revived.
func (s *Service) Reactivate(ctx context.Context, suspensionID id.SuspensionID, newBusID *id.BusID, notes string) (*Suspension, error) {
	if suspensionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "suspension id is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var updated *Suspension
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		susp, err := s.suspensions.FindByID(txCtx, suspensionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "suspension not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load suspension")
		}
		if susp.IsReactivated {
			return dErrors.New(dErrors.CodeConflict, "suspension is already reactivated")
		}
		if newBusID != nil {
			if _, err := s.buses.FindByID(txCtx, *newBusID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "bus not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
			}
		}

		student, err := s.students.FindByID(txCtx, susp.StudentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}
		nextStatus, err := registry.TransitionStatus(student.Status, registry.EventReactivated)
		if err != nil {
			return dErrors.New(dErrors.CodeConflict, "student is not suspended")
		}

		before := *susp
		susp.IsReactivated = true
		susp.ReactivatedAt = &now
		susp.ReactivatedBy = actor
		susp.NewBusID = newBusID
		susp.Notes = notes
		if err := s.suspensions.MarkReactivated(txCtx, susp); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeConflict, "suspension is already reactivated")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reactivate suspension")
		}

		if err := s.students.UpdateStatus(txCtx, susp.StudentID, nextStatus, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student status")
		}

		if newBusID != nil {
			a := &assignment.Assignment{
				ID:            id.AssignmentID(uuid.New()),
				StudentID:     susp.StudentID,
				BusID:         *newBusID,
				TransportType: assignment.TransportBoth,
				IsActive:      true,
				AssignedAt:    now,
				AssignedBy:    actor,
			}
			if err := s.assignments.Create(txCtx, a); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.New(dErrors.CodeConflict, "student already has an active assignment")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assignment")
			}
		}
		updated = susp

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionStudentReactivated,
			EntityType: "suspension",
			EntityID:   susp.ID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(susp),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStudentsReactivated()
	return updated, nil
}
