// Package registry owns the Student and Bus aggregates: the leaf
// dependencies every manager reads before mutating anything.
package registry

import (
	"time"

	id "schoolbus/pkg/domain"
)

// Lifecycle is the explicit soft-delete tag. Reads at the store boundary
// filter on it uniformly; services never see deleted rows.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)

// StudentStatus is the explicit tagged state of a student's availability.
// It changes only through TransitionStatus; managers never write it directly.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusSuspended StudentStatus = "suspended"
	StudentStatusOnLeave   StudentStatus = "on_leave"
	StudentStatusInactive  StudentStatus = "inactive"
)

// Student is created on registration approval and never hard-deleted.
type Student struct {
	ID                id.StudentID
	ExternalStudentID string
	ExternalUserID    string
	DistrictID        id.DistrictID
	Status            StudentStatus
	Lifecycle         Lifecycle
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// Bus holds identity, capacity, and the route it currently serves.
//
// Invariant: the number of active assignments referencing a bus must never
// exceed Capacity. The check runs at capacity-reduction time always, and at
// assignment/transfer time when strict capacity is enabled.
type Bus struct {
	ID        id.BusID
	Code      string
	Capacity  int
	Active    bool
	RouteID   id.RouteID
	Lifecycle Lifecycle
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
