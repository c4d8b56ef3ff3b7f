package registry

import (
	"context"
	"time"

	id "schoolbus/pkg/domain"
)

// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded domain errors. All reads filter out deleted rows.

type StudentStore interface {
	Create(ctx context.Context, student *Student) error
	FindByID(ctx context.Context, studentID id.StudentID) (*Student, error)
	FindByExternalID(ctx context.Context, externalStudentID string) (*Student, error)
	UpdateStatus(ctx context.Context, studentID id.StudentID, status StudentStatus, updatedAt time.Time) error
	SoftDelete(ctx context.Context, studentID id.StudentID, deletedAt time.Time) error
}

type BusStore interface {
	Create(ctx context.Context, bus *Bus) error
	FindByID(ctx context.Context, busID id.BusID) (*Bus, error)
	UpdateCapacity(ctx context.Context, busID id.BusID, capacity int, updatedAt time.Time) error
	SetActive(ctx context.Context, busID id.BusID, active bool, updatedAt time.Time) error
	SoftDelete(ctx context.Context, busID id.BusID, deletedAt time.Time) error
}
