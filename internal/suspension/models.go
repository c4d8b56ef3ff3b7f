// Package suspension owns the suspend/reactivate state machine:
// Active --suspend--> Suspended --reactivate--> Active.
package suspension

import (
	"time"

	id "schoolbus/pkg/domain"
)

// Suspension records one suspension episode. BusID snapshots the bus of the
// assignment that was active at suspension time (nil when unassigned).
// The record is immutable once reactivated.
type Suspension struct {
	ID            id.SuspensionID
	StudentID     id.StudentID
	BusID         *id.BusID
	Reason        string
	SuspendedAt   time.Time
	SuspendedBy   string
	IsReactivated bool
	ReactivatedAt *time.Time
	ReactivatedBy string
	NewBusID      *id.BusID
	Notes         string
}
