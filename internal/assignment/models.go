// Package assignment owns the one-active-assignment-per-student invariant.
package assignment

import (
	"time"

	id "schoolbus/pkg/domain"
)

// TransportType says which legs of the day the assignment covers.
type TransportType string

const (
	TransportArrival TransportType = "arrival"
	TransportReturn  TransportType = "return"
	TransportBoth    TransportType = "both"
)

// Valid reports whether t is a supported value.
func (t TransportType) Valid() bool {
	switch t {
	case TransportArrival, TransportReturn, TransportBoth:
		return true
	default:
		return false
	}
}

// Assignment is the student-to-bus binding. At most one assignment per
// student has IsActive=true; superseded rows are deactivated, never removed.
// The store backs the invariant with a unique index over (student_id)
// filtered to active rows; services also check it as a fast path.
type Assignment struct {
	ID            id.AssignmentID
	StudentID     id.StudentID
	BusID         id.BusID
	TransportType TransportType
	ArrivalBusID  *id.BusID
	ReturnBusID   *id.BusID
	IsActive      bool
	AssignedAt    time.Time
	AssignedBy    string
	DeactivatedAt *time.Time
}
