package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"schoolbus/internal/audit"
	"schoolbus/internal/platform/metrics"
	"schoolbus/internal/platform/storetx"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
	"schoolbus/pkg/platform/sentinel"
	"schoolbus/pkg/requestcontext"
)

// AuditPublisher is the slice of the audit trail the registry needs.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ActiveAssignmentCounter reports how many active assignments reference a
// bus. Implemented by the assignment store; consumer-defined here to avoid a
// package cycle.
type ActiveAssignmentCounter interface {
	CountActiveForBus(ctx context.Context, busID id.BusID) (int, error)
}

// StudentService owns student creation (registration approval) and
// deactivation. Status transitions during suspension/leave belong to their
// managers; this service only handles the registry-level lifecycle.
type StudentService struct {
	students StudentStore
	auditor  AuditPublisher
	tx       storetx.Runner
	logger   *slog.Logger
}

type StudentOption func(*StudentService)

func WithStudentLogger(logger *slog.Logger) StudentOption {
	return func(s *StudentService) { s.logger = logger }
}

func NewStudentService(students StudentStore, auditor AuditPublisher, tx storetx.Runner, opts ...StudentOption) *StudentService {
	s := &StudentService{students: students, auditor: auditor, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve creates the Student aggregate from an approved registration.
func (s *StudentService) Approve(ctx context.Context, externalStudentID, externalUserID string, districtID id.DistrictID) (*Student, error) {
	externalStudentID = strings.TrimSpace(externalStudentID)
	if externalStudentID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "external student id is required")
	}
	if districtID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "district id is required")
	}

	now := requestcontext.Now(ctx)
	student := &Student{
		ID:                id.StudentID(uuid.New()),
		ExternalStudentID: externalStudentID,
		ExternalUserID:    strings.TrimSpace(externalUserID),
		DistrictID:        districtID,
		Status:            StudentStatusActive,
		Lifecycle:         LifecycleActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.students.Create(txCtx, student); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "a student with this external id already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create student")
		}
		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionStudentApproved,
			EntityType: "student",
			EntityID:   student.ID.String(),
			After:      audit.Snapshot(student),
		})
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, studentID id.StudentID) (*Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}
	return student, nil
}

// Deactivate soft-deletes a student. The row stays for history; reads no
// longer surface it.
func (s *StudentService) Deactivate(ctx context.Context, studentID id.StudentID) error {
	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		student, err := s.students.FindByID(txCtx, studentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
		}

		next, err := TransitionStatus(student.Status, EventDeactivated)
		if err != nil {
			return dErrors.New(dErrors.CodeConflict, "student is already inactive")
		}
		if err := s.students.UpdateStatus(txCtx, studentID, next, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student status")
		}
		if err := s.students.SoftDelete(txCtx, studentID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate student")
		}
		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionStudentDeactivated,
			EntityType: "student",
			EntityID:   studentID.String(),
			Before:     audit.Snapshot(student),
		})
	})
}

// BusService owns the registry-side bus operations the engine depends on:
// the capacity-reduction check and the delete guard. Bus creation and general
// CRUD belong to the broader bus-management surface, outside this engine.
type BusService struct {
	buses       BusStore
	assignments ActiveAssignmentCounter
	auditor     AuditPublisher
	tx          storetx.Runner
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type BusOption func(*BusService)

func WithBusLogger(logger *slog.Logger) BusOption {
	return func(s *BusService) { s.logger = logger }
}

func WithBusMetrics(m *metrics.Metrics) BusOption {
	return func(s *BusService) { s.metrics = m }
}

func NewBusService(buses BusStore, assignments ActiveAssignmentCounter, auditor AuditPublisher, tx storetx.Runner, opts ...BusOption) *BusService {
	s := &BusService{buses: buses, assignments: assignments, auditor: auditor, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a bus by id.
func (s *BusService) Get(ctx context.Context, busID id.BusID) (*Bus, error) {
	bus, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "bus not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
	}
	return bus, nil
}

// ReduceCapacity lowers (or raises) a bus's capacity. Lowering below the
// current count of active assignments is a conflict: the capacity invariant
// is enforced here, not only by the schema.
func (s *BusService) ReduceCapacity(ctx context.Context, busID id.BusID, newCapacity int) (*Bus, error) {
	if newCapacity <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "capacity must be a positive integer")
	}

	now := requestcontext.Now(ctx)
	var updated *Bus
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		bus, err := s.buses.FindByID(txCtx, busID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "bus not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
		}

		if newCapacity < bus.Capacity {
			activeCount, err := s.assignments.CountActiveForBus(txCtx, busID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active assignments")
			}
			if activeCount > newCapacity {
				return dErrors.Newf(dErrors.CodeConflict,
					"cannot reduce capacity to %d: bus has %d active assignments", newCapacity, activeCount)
			}
		}

		before := *bus
		if err := s.buses.UpdateCapacity(txCtx, busID, newCapacity, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update bus capacity")
		}
		bus.Capacity = newCapacity
		bus.UpdatedAt = now
		updated = bus

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionBusCapacityReduced,
			EntityType: "bus",
			EntityID:   busID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(bus),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate takes a bus out of service without deleting it. Existing
// assignments keep pointing at it; new ones are the caller's policy call.
func (s *BusService) Deactivate(ctx context.Context, busID id.BusID) (*Bus, error) {
	now := requestcontext.Now(ctx)
	var updated *Bus
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		bus, err := s.buses.FindByID(txCtx, busID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "bus not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
		}
		if !bus.Active {
			return dErrors.New(dErrors.CodeConflict, "bus is already inactive")
		}

		before := *bus
		if err := s.buses.SetActive(txCtx, busID, false, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate bus")
		}
		bus.Active = false
		bus.UpdatedAt = now
		updated = bus

		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionBusDeactivated,
			EntityType: "bus",
			EntityID:   busID.String(),
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(bus),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a bus. Rejected while any active assignment still
// references the bus.
func (s *BusService) Delete(ctx context.Context, busID id.BusID) error {
	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		bus, err := s.buses.FindByID(txCtx, busID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "bus not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bus")
		}

		activeCount, err := s.assignments.CountActiveForBus(txCtx, busID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active assignments")
		}
		if activeCount > 0 {
			return dErrors.Newf(dErrors.CodeConflict,
				"cannot delete bus: %d active assignments reference it", activeCount)
		}

		if err := s.buses.SoftDelete(txCtx, busID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete bus")
		}
		return s.auditor.Emit(txCtx, audit.Event{
			Timestamp:  now,
			Action:     audit.ActionBusDeleted,
			EntityType: "bus",
			EntityID:   busID.String(),
			Before:     audit.Snapshot(bus),
		})
	})
}
