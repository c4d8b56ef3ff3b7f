package leave

import (
	"context"

	id "schoolbus/pkg/domain"
)

// Store persists leaves. Overlap checking is a service concern; the store only
// lists the non-cancelled leaves the check needs.
type Store interface {
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, leaveID id.LeaveID) (*Leave, error)
	ListNonCancelledByStudent(ctx context.Context, studentID id.StudentID) ([]Leave, error)
	Update(ctx context.Context, l *Leave) error
}
