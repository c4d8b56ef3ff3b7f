package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolbus/internal/audit"
	dErrors "schoolbus/pkg/domain-errors"
)

// AuditService is the audit trail read surface.
type AuditService interface {
	List(ctx context.Context, entityType, entityID string) ([]audit.Event, error)
}

// AuditHandler serves the read-only audit trail.
type AuditHandler struct {
	trail  AuditService
	logger *slog.Logger
}

func NewAuditHandler(trail AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{trail: trail, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit/{entityType}/{entityID}", h.handleList)
}

type auditEventResponse struct {
	Timestamp  time.Time       `json:"timestamp"`
	Actor      string          `json:"actor,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")
	if entityType == "" || entityID == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "entity type and id are required"))
		return
	}

	events, err := h.trail.List(r.Context(), entityType, entityID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			Timestamp:  e.Timestamp,
			Actor:      e.Actor,
			Action:     string(e.Action),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Before:     e.Before,
			After:      e.After,
			RequestID:  e.RequestID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
