package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/attendance"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

// AttendanceService is the reconciler surface the routes need.
type AttendanceService interface {
	CreateSession(ctx context.Context, params attendance.CreateSessionParams) (*attendance.Session, error)
	GetSession(ctx context.Context, sessionID id.SessionID) (*attendance.Session, error)
	MarkSyncing(ctx context.Context, sessionID id.SessionID) (*attendance.Session, error)
	MarkSynced(ctx context.Context, sessionID id.SessionID) (*attendance.Session, error)
	MarkFailed(ctx context.Context, sessionID id.SessionID) (*attendance.Session, error)
	SyncOffline(ctx context.Context, sessionID id.SessionID) (*attendance.Session, error)
	AddRecord(ctx context.Context, sessionID id.SessionID, studentID id.StudentID, status attendance.RecordStatus, notes string) (*attendance.Record, error)
	ListRecords(ctx context.Context, sessionID id.SessionID) ([]attendance.Record, error)
}

// AttendanceHandler serves the attendance session routes.
type AttendanceHandler struct {
	sessions AttendanceService
	logger   *slog.Logger
}

func NewAttendanceHandler(sessions AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{sessions: sessions, logger: logger}
}

func (h *AttendanceHandler) Register(r chi.Router) {
	r.Post("/attendance/sessions", h.handleCreateSession)
	r.Get("/attendance/sessions/{sessionID}", h.handleGetSession)
	r.Post("/attendance/sessions/{sessionID}/syncing", h.transitionHandler(h.sessions.MarkSyncing))
	r.Post("/attendance/sessions/{sessionID}/synced", h.transitionHandler(h.sessions.MarkSynced))
	r.Post("/attendance/sessions/{sessionID}/failed", h.transitionHandler(h.sessions.MarkFailed))
	r.Post("/attendance/sessions/{sessionID}/sync", h.transitionHandler(h.sessions.SyncOffline))
	r.Post("/attendance/sessions/{sessionID}/records", h.handleAddRecord)
	r.Get("/attendance/sessions/{sessionID}/records", h.handleListRecords)
}

func (h *AttendanceHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupervisorID   string `json:"supervisor_id"`
		BusID          string `json:"bus_id"`
		PeriodID       string `json:"period_id"`
		LocationID     string `json:"location_id,omitempty"`
		Date           string `json:"date"`
		Type           string `json:"type"`
		CreatedOffline bool   `json:"created_offline"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	busID, err := id.ParseBusID(req.BusID)
	if err != nil {
		writeError(w, err)
		return
	}
	periodID, err := id.ParsePeriodID(req.PeriodID)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		writeError(w, err)
		return
	}

	var locationID *id.LocationID
	if req.LocationID != "" {
		parsed, err := id.ParseLocationID(req.LocationID)
		if err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid location id"))
			return
		}
		locationID = &parsed
	}

	sess, err := h.sessions.CreateSession(r.Context(), attendance.CreateSessionParams{
		SupervisorID:   req.SupervisorID,
		BusID:          busID,
		PeriodID:       periodID,
		LocationID:     locationID,
		Date:           date,
		Type:           attendance.AttendanceType(req.Type),
		CreatedOffline: req.CreatedOffline,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *AttendanceHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *AttendanceHandler) transitionHandler(op func(context.Context, id.SessionID) (*attendance.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		sess, err := op(r.Context(), sessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func (h *AttendanceHandler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		StudentID string `json:"student_id"`
		Status    string `json:"status"`
		Notes     string `json:"notes,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.sessions.AddRecord(r.Context(), sessionID, studentID, attendance.RecordStatus(req.Status), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *AttendanceHandler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.sessions.ListRecords(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
