package assignment

import (
	"context"
	"time"

	id "schoolbus/pkg/domain"
)

// Store persists assignments. Create must fail with sentinel.ErrConflict when
// the student already has an active assignment; that is the store-level
// enforcement the application-level check fast-paths.
type Store interface {
	Create(ctx context.Context, a *Assignment) error
	FindByID(ctx context.Context, assignmentID id.AssignmentID) (*Assignment, error)
	FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*Assignment, error)
	ListActiveByBus(ctx context.Context, busID id.BusID) ([]*Assignment, error)
	CountActiveForBus(ctx context.Context, busID id.BusID) (int, error)
	Update(ctx context.Context, a *Assignment) error
	Deactivate(ctx context.Context, assignmentID id.AssignmentID, at time.Time) error
}
