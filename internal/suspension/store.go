package suspension

import (
	"context"

	id "schoolbus/pkg/domain"
)

// Store persists suspensions. Create must fail with sentinel.ErrConflict when
// the student already has an unresolved suspension; the postgres partial
// unique index over (student_id WHERE NOT is_reactivated) backs this.
type Store interface {
	Create(ctx context.Context, s *Suspension) error
	FindByID(ctx context.Context, suspensionID id.SuspensionID) (*Suspension, error)
	FindUnresolvedByStudent(ctx context.Context, studentID id.StudentID) (*Suspension, error)
	MarkReactivated(ctx context.Context, s *Suspension) error
}
