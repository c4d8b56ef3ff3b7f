package httptransport

import (
	"time"

	"schoolbus/internal/assignment"
	"schoolbus/internal/attendance"
	"schoolbus/internal/leave"
	"schoolbus/internal/registry"
	"schoolbus/internal/suspension"
	"schoolbus/internal/transfer"
	id "schoolbus/pkg/domain"
)

type studentResponse struct {
	ID                string    `json:"id"`
	ExternalStudentID string    `json:"external_student_id"`
	ExternalUserID    string    `json:"external_user_id,omitempty"`
	DistrictID        string    `json:"district_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toStudentResponse(s *registry.Student) studentResponse {
	return studentResponse{
		ID:                s.ID.String(),
		ExternalStudentID: s.ExternalStudentID,
		ExternalUserID:    s.ExternalUserID,
		DistrictID:        s.DistrictID.String(),
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

type busResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Capacity  int       `json:"capacity"`
	Active    bool      `json:"active"`
	RouteID   string    `json:"route_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBusResponse(b *registry.Bus) busResponse {
	resp := busResponse{
		ID:        b.ID.String(),
		Code:      b.Code,
		Capacity:  b.Capacity,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if !b.RouteID.IsNil() {
		resp.RouteID = b.RouteID.String()
	}
	return resp
}

type assignmentResponse struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	BusID         string     `json:"bus_id"`
	TransportType string     `json:"transport_type"`
	ArrivalBusID  string     `json:"arrival_bus_id,omitempty"`
	ReturnBusID   string     `json:"return_bus_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	AssignedAt    time.Time  `json:"assigned_at"`
	AssignedBy    string     `json:"assigned_by,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

func toAssignmentResponse(a *assignment.Assignment) assignmentResponse {
	resp := assignmentResponse{
		ID:            a.ID.String(),
		StudentID:     a.StudentID.String(),
		BusID:         a.BusID.String(),
		TransportType: string(a.TransportType),
		IsActive:      a.IsActive,
		AssignedAt:    a.AssignedAt,
		AssignedBy:    a.AssignedBy,
		DeactivatedAt: a.DeactivatedAt,
	}
	resp.ArrivalBusID = busIDString(a.ArrivalBusID)
	resp.ReturnBusID = busIDString(a.ReturnBusID)
	return resp
}

func busIDString(busID *id.BusID) string {
	if busID == nil {
		return ""
	}
	return busID.String()
}

type suspensionResponse struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	BusID         string     `json:"bus_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	SuspendedAt   time.Time  `json:"suspended_at"`
	SuspendedBy   string     `json:"suspended_by,omitempty"`
	IsReactivated bool       `json:"is_reactivated"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
	ReactivatedBy string     `json:"reactivated_by,omitempty"`
	NewBusID      string     `json:"new_bus_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

func toSuspensionResponse(s *suspension.Suspension) suspensionResponse {
	return suspensionResponse{
		ID:            s.ID.String(),
		StudentID:     s.StudentID.String(),
		BusID:         busIDString(s.BusID),
		Reason:        s.Reason,
		SuspendedAt:   s.SuspendedAt,
		SuspendedBy:   s.SuspendedBy,
		IsReactivated: s.IsReactivated,
		ReactivatedAt: s.ReactivatedAt,
		ReactivatedBy: s.ReactivatedBy,
		NewBusID:      busIDString(s.NewBusID),
		Notes:         s.Notes,
	}
}

type leaveResponse struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Reason        string     `json:"reason,omitempty"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
	IsApproved    bool       `json:"is_approved"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	IsCancelled   bool       `json:"is_cancelled"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy   string     `json:"cancelled_by,omitempty"`
	CancelReason  string     `json:"cancel_reason,omitempty"`
	Active        bool       `json:"active"`
}

func toLeaveResponse(l *leave.Leave, now time.Time) leaveResponse {
	return leaveResponse{
		ID:            l.ID.String(),
		StudentID:     l.StudentID.String(),
		StartDate:     l.StartDate.Format(time.DateOnly),
		EndDate:       l.EndDate.Format(time.DateOnly),
		Reason:        l.Reason,
		AttachmentURL: l.AttachmentURL,
		CreatedAt:     l.CreatedAt,
		CreatedBy:     l.CreatedBy,
		IsApproved:    l.IsApproved,
		ApprovedAt:    l.ApprovedAt,
		ApprovedBy:    l.ApprovedBy,
		IsCancelled:   l.IsCancelled,
		CancelledAt:   l.CancelledAt,
		CancelledBy:   l.CancelledBy,
		CancelReason:  l.CancelReason,
		Active:        l.IsActiveAt(now),
	}
}

type transferResponse struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	FromBusID     string    `json:"from_bus_id"`
	ToBusID       string    `json:"to_bus_id"`
	Reason        string    `json:"reason,omitempty"`
	TransferredAt time.Time `json:"transferred_at"`
	TransferredBy string    `json:"transferred_by,omitempty"`
	EffectiveDate time.Time `json:"effective_date"`
}

func toTransferResponse(t *transfer.Transfer) transferResponse {
	return transferResponse{
		ID:            t.ID.String(),
		StudentID:     t.StudentID.String(),
		FromBusID:     t.FromBusID.String(),
		ToBusID:       t.ToBusID.String(),
		Reason:        t.Reason,
		TransferredAt: t.TransferredAt,
		TransferredBy: t.TransferredBy,
		EffectiveDate: t.EffectiveDate,
	}
}

type sessionResponse struct {
	ID                string     `json:"id"`
	SupervisorID      string     `json:"supervisor_id"`
	BusID             string     `json:"bus_id"`
	PeriodID          string     `json:"period_id"`
	LocationID        string     `json:"location_id,omitempty"`
	AttendanceDate    string     `json:"attendance_date"`
	AttendanceType    string     `json:"attendance_type"`
	UnregisteredCount int        `json:"unregistered_count"`
	SyncStatus        string     `json:"sync_status"`
	CreatedOffline    bool       `json:"created_offline"`
	CreatedAt         time.Time  `json:"created_at"`
	SyncedAt          *time.Time `json:"synced_at,omitempty"`
}

func toSessionResponse(s *attendance.Session) sessionResponse {
	resp := sessionResponse{
		ID:                s.ID.String(),
		SupervisorID:      s.SupervisorID,
		BusID:             s.BusID.String(),
		PeriodID:          s.PeriodID.String(),
		AttendanceDate:    s.AttendanceDate.Format(time.DateOnly),
		AttendanceType:    string(s.AttendanceType),
		UnregisteredCount: s.UnregisteredCount,
		SyncStatus:        string(s.SyncStatus),
		CreatedOffline:    s.CreatedOffline,
		CreatedAt:         s.CreatedAt,
		SyncedAt:          s.SyncedAt,
	}
	if s.LocationID != nil {
		resp.LocationID = s.LocationID.String()
	}
	return resp
}

type recordResponse struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	RecordedBy string    `json:"recorded_by,omitempty"`
}

func toRecordResponse(r *attendance.Record) recordResponse {
	return recordResponse{
		ID:         r.ID.String(),
		SessionID:  r.SessionID.String(),
		StudentID:  r.StudentID.String(),
		Status:     string(r.Status),
		Notes:      r.Notes,
		RecordedAt: r.RecordedAt,
		RecordedBy: r.RecordedBy,
	}
}
