// Package domain holds the typed identifiers shared across the engine.
//
// Every aggregate gets its own UUID-backed type so a StudentID can never be
// passed where a BusID is expected. Parsing happens once, at trust boundaries
// (HTTP handlers, workers); services and stores only see the typed values.
package domain

import (
	"github.com/google/uuid"

	dErrors "schoolbus/pkg/domain-errors"
)

type (
	// StudentID identifies a student aggregate.
	StudentID uuid.UUID
	// BusID identifies a bus aggregate.
	BusID uuid.UUID
	// DistrictID references a district in the external directory.
	DistrictID uuid.UUID
	// RouteID references the route a bus currently serves.
	RouteID uuid.UUID
	// AssignmentID identifies a student-bus assignment row.
	AssignmentID uuid.UUID
	// SuspensionID identifies a suspension record.
	SuspensionID uuid.UUID
	// LeaveID identifies a leave record.
	LeaveID uuid.UUID
	// TransferID identifies an immutable transfer history record.
	TransferID uuid.UUID
	// SessionID identifies an attendance session.
	SessionID uuid.UUID
	// RecordID identifies a per-student attendance record.
	RecordID uuid.UUID
	// PeriodID references a school period in the external directory.
	PeriodID uuid.UUID
	// LocationID references a location in the external directory.
	LocationID uuid.UUID
)

func (id StudentID) String() string    { return uuid.UUID(id).String() }
func (id BusID) String() string        { return uuid.UUID(id).String() }
func (id DistrictID) String() string   { return uuid.UUID(id).String() }
func (id RouteID) String() string      { return uuid.UUID(id).String() }
func (id AssignmentID) String() string { return uuid.UUID(id).String() }
func (id SuspensionID) String() string { return uuid.UUID(id).String() }
func (id LeaveID) String() string      { return uuid.UUID(id).String() }
func (id TransferID) String() string   { return uuid.UUID(id).String() }
func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id RecordID) String() string     { return uuid.UUID(id).String() }
func (id PeriodID) String() string     { return uuid.UUID(id).String() }
func (id LocationID) String() string   { return uuid.UUID(id).String() }

func (id StudentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BusID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DistrictID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RouteID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SuspensionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LeaveID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PeriodID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared parsing invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseStudentID(raw string) (StudentID, error) {
	parsed, err := parseUUID(raw, "student")
	return StudentID(parsed), err
}

func ParseBusID(raw string) (BusID, error) {
	parsed, err := parseUUID(raw, "bus")
	return BusID(parsed), err
}

func ParseDistrictID(raw string) (DistrictID, error) {
	parsed, err := parseUUID(raw, "district")
	return DistrictID(parsed), err
}

func ParseAssignmentID(raw string) (AssignmentID, error) {
	parsed, err := parseUUID(raw, "assignment")
	return AssignmentID(parsed), err
}

func ParseSuspensionID(raw string) (SuspensionID, error) {
	parsed, err := parseUUID(raw, "suspension")
	return SuspensionID(parsed), err
}

func ParseLeaveID(raw string) (LeaveID, error) {
	parsed, err := parseUUID(raw, "leave")
	return LeaveID(parsed), err
}

func ParseTransferID(raw string) (TransferID, error) {
	parsed, err := parseUUID(raw, "transfer")
	return TransferID(parsed), err
}

func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw, "session")
	return SessionID(parsed), err
}

func ParsePeriodID(raw string) (PeriodID, error) {
	parsed, err := parseUUID(raw, "period")
	return PeriodID(parsed), err
}

func ParseLocationID(raw string) (LocationID, error) {
	parsed, err := parseUUID(raw, "location")
	return LocationID(parsed), err
}
