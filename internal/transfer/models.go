// Package transfer owns atomic bus-to-bus moves. A transfer deactivates the
// student's current assignment, creates a fresh one on the target bus, and
// leaves an immutable history record behind.
package transfer

import (
	"time"

	id "schoolbus/pkg/domain"
)

// Transfer is a pure history record. Current state lives in the assignment
// table; this row is never updated after creation.
type Transfer struct {
	ID            id.TransferID
	StudentID     id.StudentID
	FromBusID     id.BusID
	ToBusID       id.BusID
	Reason        string
	TransferredAt time.Time
	TransferredBy string
	EffectiveDate time.Time
}
