package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
)

// StudentService is the registry surface the student routes need.
type StudentService interface {
	Approve(ctx context.Context, externalStudentID, externalUserID string, districtID id.DistrictID) (*registry.Student, error)
	Get(ctx context.Context, studentID id.StudentID) (*registry.Student, error)
	Deactivate(ctx context.Context, studentID id.StudentID) error
}

// BusService is the registry surface the bus routes need.
type BusService interface {
	Get(ctx context.Context, busID id.BusID) (*registry.Bus, error)
	ReduceCapacity(ctx context.Context, busID id.BusID, newCapacity int) (*registry.Bus, error)
	Deactivate(ctx context.Context, busID id.BusID) (*registry.Bus, error)
	Delete(ctx context.Context, busID id.BusID) error
}

// RegistryHandler serves the student and bus registry routes.
type RegistryHandler struct {
	students StudentService
	buses    BusService
	logger   *slog.Logger
}

func NewRegistryHandler(students StudentService, buses BusService, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{students: students, buses: buses, logger: logger}
}

func (h *RegistryHandler) Register(r chi.Router) {
	r.Post("/students", h.handleApproveStudent)
	r.Get("/students/{studentID}", h.handleGetStudent)
	r.Delete("/students/{studentID}", h.handleDeactivateStudent)

	r.Get("/buses/{busID}", h.handleGetBus)
	r.Patch("/buses/{busID}/capacity", h.handleReduceCapacity)
	r.Post("/buses/{busID}/deactivate", h.handleDeactivateBus)
	r.Delete("/buses/{busID}", h.handleDeleteBus)
}

func (h *RegistryHandler) handleApproveStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalStudentID string `json:"external_student_id"`
		ExternalUserID    string `json:"external_user_id"`
		DistrictID        string `json:"district_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	districtID, err := id.ParseDistrictID(req.DistrictID)
	if err != nil {
		writeError(w, err)
		return
	}

	student, err := h.students.Approve(r.Context(), req.ExternalStudentID, req.ExternalUserID, districtID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentResponse(student))
}

func (h *RegistryHandler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	student, err := h.students.Get(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *RegistryHandler) handleDeactivateStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.students.Deactivate(r.Context(), studentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) handleGetBus(w http.ResponseWriter, r *http.Request) {
	busID, err := id.ParseBusID(chi.URLParam(r, "busID"))
	if err != nil {
		writeError(w, err)
		return
	}
	bus, err := h.buses.Get(r.Context(), busID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusResponse(bus))
}

func (h *RegistryHandler) handleReduceCapacity(w http.ResponseWriter, r *http.Request) {
	busID, err := id.ParseBusID(chi.URLParam(r, "busID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Capacity int `json:"capacity"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	bus, err := h.buses.ReduceCapacity(r.Context(), busID, req.Capacity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusResponse(bus))
}

func (h *RegistryHandler) handleDeactivateBus(w http.ResponseWriter, r *http.Request) {
	busID, err := id.ParseBusID(chi.URLParam(r, "busID"))
	if err != nil {
		writeError(w, err)
		return
	}
	bus, err := h.buses.Deactivate(r.Context(), busID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusResponse(bus))
}

func (h *RegistryHandler) handleDeleteBus(w http.ResponseWriter, r *http.Request) {
	busID, err := id.ParseBusID(chi.URLParam(r, "busID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.buses.Delete(r.Context(), busID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
