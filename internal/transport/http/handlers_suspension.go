package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/suspension"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

// SuspensionService is the suspension surface the routes need.
type SuspensionService interface {
	Suspend(ctx context.Context, studentID id.StudentID, reason string) (*suspension.Suspension, error)
	Reactivate(ctx context.Context, suspensionID id.SuspensionID, newBusID *id.BusID, notes string) (*suspension.Suspension, error)
}

// SuspensionHandler serves the suspension routes.
type SuspensionHandler struct {
	suspensions SuspensionService
	logger      *slog.Logger
}

func NewSuspensionHandler(suspensions SuspensionService, logger *slog.Logger) *SuspensionHandler {
	return &SuspensionHandler{suspensions: suspensions, logger: logger}
}

func (h *SuspensionHandler) Register(r chi.Router) {
	r.Post("/suspensions", h.handleSuspend)
	r.Post("/suspensions/{suspensionID}/reactivate", h.handleReactivate)
}

func (h *SuspensionHandler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID string `json:"student_id"`
		Reason    string `json:"reason"`
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

	susp, err := h.suspensions.Suspend(r.Context(), studentID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSuspensionResponse(susp))
}

func (h *SuspensionHandler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	suspensionID, err := id.ParseSuspensionID(chi.URLParam(r, "suspensionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		NewBusID string `json:"new_bus_id,omitempty"`
		Notes    string `json:"notes,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var newBusID *id.BusID
	if req.NewBusID != "" {
		busID, err := id.ParseBusID(req.NewBusID)
		if err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid new bus id"))
			return
		}
		newBusID = &busID
	}

	susp, err := h.suspensions.Reactivate(r.Context(), suspensionID, newBusID, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuspensionResponse(susp))
}
