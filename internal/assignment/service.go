package assignment

import (
	"context"
	"errors"
	"log/slog"

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

// Students is the slice of the student registry this manager reads.
type Students interface {
	FindByID(ctx context.Context, studentID id.StudentID) (*registry.Student, error)
}

// Buses is the slice of the bus registry this manager reads.
type Buses interface {
	FindByID(ctx context.Context, busID id.BusID) (*registry.Bus, error)
}

// AuditPublisher is the slice of the audit trail this manager writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the single-active-assignment invariant.
type Service struct {
	assignments Store
	students    Students
	buses       Buses
	auditor     AuditPublisher
	tx          storetx.Runner
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// strictCapacity adds a destination-capacity check to Assign. The legacy
	// system only checked capacity on reduction; keep this off to match it.
	strictCapacity bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStrictCapacity(strict bool) Option {
	return func(s *Service) { s.strictCapacity = strict }
}

func NewService(assignments Store, students Students, buses Buses, auditor AuditPublisher, tx storetx.Runner, opts ...Option) *Service {
	s := &Service{
		assignments: assignments,
		students:    students,
		buses:       buses,
		auditor:     auditor,
		tx:          tx,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignParams carries the inputs for Assign and UpdateAssignment.
type AssignParams struct {
	StudentID     id.StudentID
	BusID         id.BusID
	TransportType TransportType
	ArrivalBusID  *id.BusID
	ReturnBusID   *id.BusID
}

func (p AssignParams) validate() error {
	if p.StudentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "student id is required")
	}
	if p.BusID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "bus id is required")
	}
	if !p.TransportType.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unsupported transport type %q", p.TransportType)
	}
	return nil
}

// Assign creates the student's active assignment. Retrying a successful
// Assign is not idempotent: the second call fails with a conflict and the
// student's active-assignment count stays at one.
func (s *Service) Assign(ctx context.Context, params AssignParams) (*Assignment, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var created *Assignment
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.students.FindByID(txCtx, params.StudentID); err != nil {
			return notFoundOrInternal(err, "student not found", "failed to load student")
		}
		bus, err := s.buses.FindByID(txCtx, params.BusID)
		if err != nil {
			return notFoundOrInternal(err, "bus not found", "failed to load bus")
		}
		if err := s.checkSplitBuses(txCtx, params); err != nil {
			return err
		}

		// Fast-path check; the store's unique index is the real enforcement
		// under concurrency.
		if _, err := s.assignments.FindActiveByStudent(txCtx, params.StudentID); err == nil {
			return dErrors.New(dErrors.CodeConflict, "student already has an active assignment")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing assignment")
		}

		if s.strictCapacity {
			count, err := s.assignments.CountActiveForBus(txCtx, params.BusID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active assignments")
			}
			if count >= bus.Capacity {
				return dErrors.Newf(dErrors.CodeConflict, "bus %s is at capacity (%d)", bus.Code, bus.Capacity)
			}
		}

		a := &Assignment{
			ID:            id.AssignmentID(uuid.New()),
			StudentID:     params.StudentID,
			BusID:         params.BusID,
			TransportType: params.TransportType,
			ArrivalBusID:  params.ArrivalBusID,
			ReturnBusID:   params.ReturnBusID,
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
		created = a

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Actor:      actor,
			Action:     audit.ActionAssignmentCreated,
			EntityType: "assignment",
			EntityID:   a.ID.String(),
			After:      audit.Snapshot(a),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAssignmentsCreated()
	return created, nil
}

// UpdateAssignment mutates the bus/type/split fields of the student's active
// assignment in place. Unlike Transfer it does not create a new row.
func (s *Service) UpdateAssignment(ctx context.Context, params AssignParams) (*Assignment, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *Assignment
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.assignments.FindActiveByStudent(txCtx, params.StudentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student has no active assignment")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active assignment")
		}
		if _, err := s.buses.FindByID(txCtx, params.BusID); err != nil {
			return notFoundOrInternal(err, "bus not found", "failed to load bus")
		}
		if err := s.checkSplitBuses(txCtx, params); err != nil {
			return err
		}

		before := *current
		current.BusID = params.BusID
		current.TransportType = params.TransportType
		current.ArrivalBusID = params.ArrivalBusID
		current.ReturnBusID = params.ReturnBusID
		if err := s.assignments.Update(txCtx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update assignment")
		}
		updated = current

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionAssignmentUpdated,
			EntityType: "assignment",
			EntityID:   current.ID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(current),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAssignmentsUpdated()
	return updated, nil
}

// GetActiveForStudent is a read-only projection; no invariant work.
func (s *Service) GetActiveForStudent(ctx context.Context, studentID id.StudentID) (*Assignment, error) {
	a, err := s.assignments.FindActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student has no active assignment")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active assignment")
	}
	return a, nil
}

// GetActiveForBus lists the bus's active assignments.
func (s *Service) GetActiveForBus(ctx context.Context, busID id.BusID) ([]*Assignment, error) {
	assignments, err := s.assignments.ListActiveByBus(ctx, busID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active assignments")
	}
	return assignments, nil
}

// checkSplitBuses verifies any referenced split arrival/return bus exists.
func (s *Service) checkSplitBuses(ctx context.Context, params AssignParams) error {
	if params.TransportType == TransportBoth {
		return nil
	}
	for _, busID := range []*id.BusID{params.ArrivalBusID, params.ReturnBusID} {
		if busID == nil {
			continue
		}
		if _, err := s.buses.FindByID(ctx, *busID); err != nil {
			return notFoundOrInternal(err, "split bus not found", "failed to load split bus")
		}
	}
	return nil
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
