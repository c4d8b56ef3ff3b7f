package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/assignment"
	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
)

// AssignmentService is the assignment surface the routes need.
type AssignmentService interface {
	Assign(ctx context.Context, params assignment.AssignParams) (*assignment.Assignment, error)
	UpdateAssignment(ctx context.Context, params assignment.AssignParams) (*assignment.Assignment, error)
	GetActiveForStudent(ctx context.Context, studentID id.StudentID) (*assignment.Assignment, error)
	GetActiveForBus(ctx context.Context, busID id.BusID) ([]*assignment.Assignment, error)
}

// AssignmentHandler serves the assignment routes.
type AssignmentHandler struct {
	assignments AssignmentService
	logger      *slog.Logger
}

func NewAssignmentHandler(assignments AssignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, logger: logger}
}

func (h *AssignmentHandler) Register(r chi.Router) {
	r.Post("/assignments", h.handleAssign)
	r.Put("/assignments", h.handleUpdate)
	r.Get("/students/{studentID}/assignment", h.handleGetForStudent)
	r.Get("/buses/{busID}/assignments", h.handleGetForBus)
}

type assignmentRequest struct {
	StudentID     string `json:"student_id"`
	BusID         string `json:"bus_id"`
	TransportType string `json:"transport_type"`
	ArrivalBusID  string `json:"arrival_bus_id,omitempty"`
	ReturnBusID   string `json:"return_bus_id,omitempty"`
}

func (req assignmentRequest) toParams() (assignment.AssignParams, error) {
	var params assignment.AssignParams

	studentID, err := id.ParseStudentID(req.StudentID)
	if err != nil {
		return params, err
	}
	busID, err := id.ParseBusID(req.BusID)
	if err != nil {
		return params, err
	}
	params.StudentID = studentID
	params.BusID = busID
	params.TransportType = assignment.TransportType(req.TransportType)

	if req.ArrivalBusID != "" {
		arrivalID, err := id.ParseBusID(req.ArrivalBusID)
		if err != nil {
			return params, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid arrival bus id")
		}
		params.ArrivalBusID = &arrivalID
	}
	if req.ReturnBusID != "" {
		returnID, err := id.ParseBusID(req.ReturnBusID)
		if err != nil {
			return params, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid return bus id")
		}
		params.ReturnBusID = &returnID
	}
	return params, nil
}

func (h *AssignmentHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.assignments.Assign(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (h *AssignmentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.assignments.UpdateAssignment(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func (h *AssignmentHandler) handleGetForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.assignments.GetActiveForStudent(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func (h *AssignmentHandler) handleGetForBus(w http.ResponseWriter, r *http.Request) {
	busID, err := id.ParseBusID(chi.URLParam(r, "busID"))
	if err != nil {
		writeError(w, err)
		return
	}
	assignments, err := h.assignments.GetActiveForBus(r.Context(), busID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}
