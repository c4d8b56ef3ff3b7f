package transfer

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
	CountActiveForBus(ctx context.Context, busID id.BusID) (int, error)
}

// AuditPublisher is the slice of the audit trail this manager writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	transfers      Store
	students       Students
	buses          Buses
	assignments    Assignments
	auditor        AuditPublisher
	tx             storetx.Runner
	logger         *slog.Logger
	metrics        *metrics.Metrics
	strictCapacity bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStrictCapacity makes Transfer reject a target bus whose active
// assignment count has reached capacity. Off by default.
func WithStrictCapacity(strict bool) Option {
	return func(s *Service) { s.strictCapacity = strict }
}

func NewService(transfers Store, students Students, buses Buses, assignments Assignments, auditor AuditPublisher, tx storetx.Runner, opts ...Option) *Service {
	s := &Service{
		transfers:   transfers,
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

// TransferParams describes one bus-to-bus move. EffectiveDate defaults to the
// request time when zero.
type TransferParams struct {
	StudentID     id.StudentID
	ToBusID       id.BusID
	Reason        string
	EffectiveDate time.Time
}

func (p TransferParams) validate() error {
	if p.StudentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	if p.ToBusID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target bus id is required")
	}
	return nil
}

// Transfer moves the student's single active assignment to the target bus.
// The replacement assignment is always transport type Both; a split
// arrival/return configuration does not survive a transfer.
func (s *Service) Transfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	effective := params.EffectiveDate
	if effective.IsZero() {
		effective = now
	}

	var created *Transfer
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.students.FindByID(txCtx, params.StudentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}
		toBus, err := s.buses.FindByID(txCtx, params.ToBusID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "target bus not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
		}

		current, err := s.assignments.FindActiveByStudent(txCtx, params.StudentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeConflict, "student has no active assignment to transfer from")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active assignment")
		}
		if current.BusID == params.ToBusID {
			return dErrors.New(dErrors.CodeConflict, "student is already assigned to this bus")
		}

		if s.strictCapacity {
			count, err := s.assignments.CountActiveForBus(txCtx, params.ToBusID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count bus assignments")
			}
			if count >= toBus.Capacity {
				return dErrors.New(dErrors.CodeConflict, "bus is at capacity")
			}
		}

		if err := s.assignments.Deactivate(txCtx, current.ID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate assignment")
		}
		replacement := &assignment.Assignment{
			ID:            id.AssignmentID(uuid.New()),
			StudentID:     params.StudentID,
			BusID:         params.ToBusID,
			TransportType: assignment.TransportBoth,
			IsActive:      true,
			AssignedAt:    now,
			AssignedBy:    actor,
		}
		if err := s.assignments.Create(txCtx, replacement); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "student already has an active assignment")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assignment")
		}

		t := &Transfer{
			ID:            id.TransferID(uuid.New()),
			StudentID:     params.StudentID,
			FromBusID:     current.BusID,
			ToBusID:       params.ToBusID,
			Reason:        params.Reason,
			TransferredAt: now,
			TransferredBy: actor,
			EffectiveDate: effective,
		}
		if err := s.transfers.Create(txCtx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transfer")
		}
		created = t

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionStudentTransferred,
			EntityType: "transfer",
			EntityID:   t.ID.String(),
			After:      audit.Snapshot(t),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransfers()
	return created, nil
}

// History returns the student's transfer records, oldest first.
func (s *Service) History(ctx context.Context, studentID id.StudentID) ([]Transfer, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	transfers, err := s.transfers.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers")
	}
	return transfers, nil
}
