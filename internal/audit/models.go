// Package audit is the append-only trail of every mutating engine operation.
// Events are written inside the caller's transaction (postgres store uses a
// transactional outbox) and relayed to Kafka by the outbox worker.
package audit

import (
	"encoding/json"
	"time"
)

// Action names the mutating operation an event records.
type Action string

const (
	ActionStudentApproved    Action = "student_approved"
	ActionStudentDeactivated Action = "student_deactivated"

	ActionBusCapacityReduced Action = "bus_capacity_reduced"
	ActionBusDeactivated     Action = "bus_deactivated"
	ActionBusDeleted         Action = "bus_deleted"

	ActionAssignmentCreated Action = "assignment_created"
	ActionAssignmentUpdated Action = "assignment_updated"

	ActionStudentSuspended   Action = "student_suspended"
	ActionStudentReactivated Action = "student_reactivated"

	ActionLeaveCreated   Action = "leave_created"
	ActionLeaveApproved  Action = "leave_approved"
	ActionLeaveCancelled Action = "leave_cancelled"

	ActionStudentTransferred Action = "student_transferred"

	ActionSessionCreated Action = "attendance_session_created"
	ActionSessionSynced  Action = "attendance_session_synced"
	ActionSessionFailed  Action = "attendance_session_failed"
	ActionRecordAdded    Action = "attendance_record_added"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Events are immutable once appended; there is no update path.
type Event struct {
	Timestamp  time.Time
	Actor      string
	Action     Action
	EntityType string
	EntityID   string
	Before     json.RawMessage
	After      json.RawMessage
	RequestID  string
}

// Snapshot serializes an entity state for the Before/After fields. A nil
// entity yields nil, which is stored as SQL NULL.
func Snapshot(entity any) json.RawMessage {
	if entity == nil {
		return nil
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil
	}
	return raw
}
