package transfer

import (
	"context"

	id "schoolbus/pkg/domain"
)

// Store persists transfer history. Append and read only.
type Store interface {
	Create(ctx context.Context, t *Transfer) error
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]Transfer, error)
}
