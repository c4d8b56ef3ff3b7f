package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schoolbus/pkg/domain-errors"
)

// TestTransitionStatus pins the full transition table. Suspension wins over
// leave: a suspended student cannot start leave, and reactivation always
// lands on Active even if a leave window is open.
func TestTransitionStatus(t *testing.T) {
	tests := []struct {
		name    string
		current StudentStatus
		event   StatusEvent
		want    StudentStatus
		wantErr bool
	}{
		{"active suspended", StudentStatusActive, EventSuspended, StudentStatusSuspended, false},
		{"on-leave suspended", StudentStatusOnLeave, EventSuspended, StudentStatusSuspended, false},
		{"suspended again is rejected", StudentStatusSuspended, EventSuspended, "", true},
		{"inactive suspended is rejected", StudentStatusInactive, EventSuspended, "", true},

		{"suspended reactivated", StudentStatusSuspended, EventReactivated, StudentStatusActive, false},
		{"active reactivated is rejected", StudentStatusActive, EventReactivated, "", true},
		{"on-leave reactivated is rejected", StudentStatusOnLeave, EventReactivated, "", true},

		{"active starts leave", StudentStatusActive, EventLeaveStarted, StudentStatusOnLeave, false},
		{"suspended cannot start leave", StudentStatusSuspended, EventLeaveStarted, "", true},
		{"on-leave ends leave", StudentStatusOnLeave, EventLeaveEnded, StudentStatusActive, false},
		{"active cannot end leave", StudentStatusActive, EventLeaveEnded, "", true},

		{"active deactivated", StudentStatusActive, EventDeactivated, StudentStatusInactive, false},
		{"suspended deactivated", StudentStatusSuspended, EventDeactivated, StudentStatusInactive, false},
		{"on-leave deactivated", StudentStatusOnLeave, EventDeactivated, StudentStatusInactive, false},
		{"inactive deactivated is rejected", StudentStatusInactive, EventDeactivated, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := TransitionStatus(tt.current, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
				assert.Equal(t, tt.current, next, "failed transitions must not move the status")
				assert.False(t, CanTransition(tt.current, tt.event))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
			assert.True(t, CanTransition(tt.current, tt.event))
		})
	}
}

func TestTransitionStatus_UnknownEvent(t *testing.T) {
	_, err := TransitionStatus(StudentStatusActive, StatusEvent("expelled"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
