package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for engine operations. Services hold
// a possibly-nil *Metrics and increment through the nil-safe helpers so unit
// tests don't need a registry.
type Metrics struct {
	AssignmentsCreated  prometheus.Counter
	AssignmentsUpdated  prometheus.Counter
	StudentsSuspended   prometheus.Counter
	StudentsReactivated prometheus.Counter
	LeavesCreated       prometheus.Counter
	LeavesApproved      prometheus.Counter
	LeavesCancelled     prometheus.Counter
	Transfers           prometheus.Counter
	SessionsCreated     *prometheus.CounterVec
	SessionSyncOutcomes *prometheus.CounterVec
	AuditEventsRelayed  prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AssignmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_assignments_created_total",
			Help: "Total number of active bus assignments created.",
		}),
		AssignmentsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_assignments_updated_total",
			Help: "Total number of in-place assignment updates.",
		}),
		StudentsSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_students_suspended_total",
			Help: "Total number of student suspensions.",
		}),
		StudentsReactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_students_reactivated_total",
			Help: "Total number of suspension reactivations.",
		}),
		LeavesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_leaves_created_total",
			Help: "Total number of leave requests created.",
		}),
		LeavesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_leaves_approved_total",
			Help: "Total number of leave approvals.",
		}),
		LeavesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_leaves_cancelled_total",
			Help: "Total number of leave cancellations.",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_transfers_total",
			Help: "Total number of bus-to-bus transfers.",
		}),
		SessionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_attendance_sessions_created_total",
			Help: "Total attendance sessions created, by origin.",
		}, []string{"origin"}),
		SessionSyncOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_attendance_session_sync_total",
			Help: "Attendance session sync transitions, by outcome.",
		}, []string{"outcome"}),
		AuditEventsRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_audit_events_relayed_total",
			Help: "Audit outbox rows successfully published to Kafka.",
		}),
	}
}

// IncAssignmentsCreated is nil-safe.
func (m *Metrics) IncAssignmentsCreated() {
	if m != nil {
		m.AssignmentsCreated.Inc()
	}
}

// IncAssignmentsUpdated is nil-safe.
func (m *Metrics) IncAssignmentsUpdated() {
	if m != nil {
		m.AssignmentsUpdated.Inc()
	}
}

// IncStudentsSuspended is nil-safe.
func (m *Metrics) IncStudentsSuspended() {
	if m != nil {
		m.StudentsSuspended.Inc()
	}
}

// IncStudentsReactivated is nil-safe.
func (m *Metrics) IncStudentsReactivated() {
	if m != nil {
		m.StudentsReactivated.Inc()
	}
}

// IncLeavesCreated is nil-safe.
func (m *Metrics) IncLeavesCreated() {
	if m != nil {
		m.LeavesCreated.Inc()
	}
}

// IncLeavesApproved is nil-safe.
func (m *Metrics) IncLeavesApproved() {
	if m != nil {
		m.LeavesApproved.Inc()
	}
}

// IncLeavesCancelled is nil-safe.
func (m *Metrics) IncLeavesCancelled() {
	if m != nil {
		m.LeavesCancelled.Inc()
	}
}

// IncTransfers is nil-safe.
func (m *Metrics) IncTransfers() {
	if m != nil {
		m.Transfers.Inc()
	}
}

// IncSessionsCreated is nil-safe. Origin is "online" or "offline".
func (m *Metrics) IncSessionsCreated(origin string) {
	if m != nil {
		m.SessionsCreated.WithLabelValues(origin).Inc()
	}
}

// IncSessionSync is nil-safe. Outcome is "syncing", "synced" or "failed".
func (m *Metrics) IncSessionSync(outcome string) {
	if m != nil {
		m.SessionSyncOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncAuditEventsRelayed is nil-safe.
func (m *Metrics) IncAuditEventsRelayed() {
	if m != nil {
		m.AuditEventsRelayed.Inc()
	}
}
