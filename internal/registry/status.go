package registry

import (
	dErrors "schoolbus/pkg/domain-errors"
)

// StatusEvent names the lifecycle events that may change a student's status.
type StatusEvent string

const (
	EventSuspended    StatusEvent = "suspended"
	EventReactivated  StatusEvent = "reactivated"
	EventLeaveStarted StatusEvent = "leave_started"
	EventLeaveEnded   StatusEvent = "leave_ended"
	EventDeactivated  StatusEvent = "deactivated"
)

// transitions is the single authoritative table of allowed status changes.
// Exactly one of suspension or leave governs the status at any instant:
// a suspension wins over leave (suspending an on-leave student is allowed,
// reactivation returns the student to Active, not OnLeave).
var transitions = map[StatusEvent]map[StudentStatus]StudentStatus{
	EventSuspended: {
		StudentStatusActive:  StudentStatusSuspended,
		StudentStatusOnLeave: StudentStatusSuspended,
	},
	EventReactivated: {
		StudentStatusSuspended: StudentStatusActive,
	},
	EventLeaveStarted: {
		StudentStatusActive: StudentStatusOnLeave,
	},
	EventLeaveEnded: {
		StudentStatusOnLeave: StudentStatusActive,
	},
	EventDeactivated: {
		StudentStatusActive:    StudentStatusInactive,
		StudentStatusSuspended: StudentStatusInactive,
		StudentStatusOnLeave:   StudentStatusInactive,
	},
}

// TransitionStatus applies event to current and returns the next status.
// Disallowed transitions return CodeInvariantViolation; services re-code
// them as conflicts with an operation-specific reason.
func TransitionStatus(current StudentStatus, event StatusEvent) (StudentStatus, error) {
	next, ok := transitions[event][current]
	if !ok {
		return current, dErrors.Newf(dErrors.CodeInvariantViolation,
			"status event %q is not allowed from status %q", event, current)
	}
	return next, nil
}

// CanTransition reports whether event is allowed from current.
func CanTransition(current StudentStatus, event StatusEvent) bool {
	_, ok := transitions[event][current]
	return ok
}
