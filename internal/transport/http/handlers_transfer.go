package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/transfer"
	id "schoolbus/pkg/domain"
)

// TransferService is the transfer surface the routes need.
type TransferService interface {
	Transfer(ctx context.Context, params transfer.TransferParams) (*transfer.Transfer, error)
	History(ctx context.Context, studentID id.StudentID) ([]transfer.Transfer, error)
}

// TransferHandler serves the transfer routes.
type TransferHandler struct {
	transfers TransferService
	logger    *slog.Logger
}

func NewTransferHandler(transfers TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, logger: logger}
}

func (h *TransferHandler) Register(r chi.Router) {
	r.Post("/transfers", h.handleTransfer)
	r.Get("/students/{studentID}/transfers", h.handleHistory)
}

func (h *TransferHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID     string `json:"student_id"`
		ToBusID       string `json:"to_bus_id"`
		Reason        string `json:"reason,omitempty"`
		EffectiveDate string `json:"effective_date,omitempty"`
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
	toBusID, err := id.ParseBusID(req.ToBusID)
	if err != nil {
		writeError(w, err)
		return
	}

	var effective time.Time
	if req.EffectiveDate != "" {
		effective, err = parseDate(req.EffectiveDate, "effective_date")
		if err != nil {
			writeError(w, err)
			return
		}
	}

	t, err := h.transfers.Transfer(r.Context(), transfer.TransferParams{
		StudentID:     studentID,
		ToBusID:       toBusID,
		Reason:        req.Reason,
		EffectiveDate: effective,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferResponse(t))
}

func (h *TransferHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	transfers, err := h.transfers.History(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, toTransferResponse(&transfers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
