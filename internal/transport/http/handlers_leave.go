package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/leave"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
	"schoolbus/pkg/requestcontext"
)

// LeaveService is the leave surface the routes need.
type LeaveService interface {
	Create(ctx context.Context, params leave.CreateParams) (*leave.Leave, error)
	Approve(ctx context.Context, leaveID id.LeaveID) (*leave.Leave, error)
	Cancel(ctx context.Context, leaveID id.LeaveID, reason string) (*leave.Leave, error)
	Get(ctx context.Context, leaveID id.LeaveID) (*leave.Leave, error)
	ListForStudent(ctx context.Context, studentID id.StudentID) ([]leave.Leave, error)
}

// LeaveHandler serves the leave routes.
type LeaveHandler struct {
	leaves LeaveService
	logger *slog.Logger
}

func NewLeaveHandler(leaves LeaveService, logger *slog.Logger) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, logger: logger}
}

func (h *LeaveHandler) Register(r chi.Router) {
	r.Post("/leaves", h.handleCreate)
	r.Get("/leaves/{leaveID}", h.handleGet)
	r.Post("/leaves/{leaveID}/approve", h.handleApprove)
	r.Post("/leaves/{leaveID}/cancel", h.handleCancel)
	r.Get("/students/{studentID}/leaves", h.handleListForStudent)
}

func (h *LeaveHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID     string `json:"student_id"`
		StartDate     string `json:"start_date"`
		EndDate       string `json:"end_date"`
		Reason        string `json:"reason,omitempty"`
		AttachmentURL string `json:"attachment_url,omitempty"`
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
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		writeError(w, err)
		return
	}

	l, err := h.leaves.Create(r.Context(), leave.CreateParams{
		StudentID:     studentID,
		StartDate:     start,
		EndDate:       end,
		Reason:        req.Reason,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveResponse(l, requestcontext.Now(r.Context())))
}

func (h *LeaveHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	leaveID, err := id.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := h.leaves.Get(r.Context(), leaveID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(l, requestcontext.Now(r.Context())))
}

func (h *LeaveHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	leaveID, err := id.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := h.leaves.Approve(r.Context(), leaveID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(l, requestcontext.Now(r.Context())))
}

func (h *LeaveHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	leaveID, err := id.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	l, err := h.leaves.Cancel(r.Context(), leaveID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(l, requestcontext.Now(r.Context())))
}

func (h *LeaveHandler) handleListForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	leaves, err := h.leaves.ListForStudent(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	now := requestcontext.Now(r.Context())
	out := make([]leaveResponse, 0, len(leaves))
	for i := range leaves {
		out = append(out, toLeaveResponse(&leaves[i], now))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}
