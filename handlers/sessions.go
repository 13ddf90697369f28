// ABOUTME: HTTP handlers for planning sessions
// ABOUTME: Create, update, override, and export iterative what-if plans

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

// CreateSession starts a planning session. Existing instances and naming are
// resolved from the inventory for the request's environment unless supplied.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		h.writeErrorDetails(w, "Invalid session request", err, http.StatusBadRequest)
		return
	}

	cfg := models.DefaultCapacityConfig()
	cfg.DiskTotalGB, cfg.DiskReservedGB = 0, 0
	if req.Config != nil {
		cfg = *req.Config
	}
	cfg = h.withServerDefaults(cfg)
	req.Config = &cfg

	var existing []models.ExistingInstance
	if req.ExistingInstances == nil {
		probed, err := h.inventory.ProbeDestinations(r.Context(), req.Environment)
		if err != nil {
			slog.Error("Failed to probe destinations for session", "error", err)
			h.writeError(w, "Failed to probe destination instances", http.StatusBadGateway)
			return
		}
		existing = probed
	}

	session, err := h.sessions.Create(req, existing, h.inventory.Naming(req.Environment))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.respondSession(w, http.StatusCreated, session, false)
}

// GetSession returns a session and its current plan.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, session, false)
}

// DeleteSession discards a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSessionConfig replaces the capacity config of a session.
func (h *Handler) UpdateSessionConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var cfg models.CapacityConfig
	if !h.decodeJSON(w, r, &cfg) {
		return
	}

	session, invalidated, err := h.sessions.UpdateConfig(id, h.withServerDefaults(cfg))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, session, invalidated)
}

// UpdateSessionSelection replaces the selected databases of a session.
func (h *Handler) UpdateSessionSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req models.UpdateSelectionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		h.writeErrorDetails(w, "Invalid selection", err, http.StatusBadRequest)
		return
	}

	session, invalidated, err := h.sessions.UpdateSelection(id, req.Databases)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, session, invalidated)
}

// SetSessionOverride assigns one database to a target instance.
func (h *Handler) SetSessionOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req models.SetOverrideRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		h.writeErrorDetails(w, "Invalid override", err, http.StatusBadRequest)
		return
	}

	session, err := h.sessions.SetOverride(id, req.DatabaseKey, req.Target)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, session, false)
}

// ClearSessionOverrides removes every override of a session.
func (h *Handler) ClearSessionOverrides(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.ClearOverrides(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, session, false)
}

// ExportSession returns the session's current plan as xlsx.
func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	result, ok := h.run(w, session.Input())
	if !ok {
		return
	}
	h.writeWorkbook(w, result)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := services.ValidateSessionID(id); err != nil {
		h.writeError(w, "Invalid session ID", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *Handler) respondSession(w http.ResponseWriter, status int, session models.PlanningSession, invalidated bool) {
	result, ok := h.run(w, session.Input())
	if !ok {
		return
	}
	h.writeJSON(w, status, models.SessionResponse{
		Session:              session,
		Result:               result,
		OverridesInvalidated: invalidated,
	})
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		h.writeError(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, services.ErrUnknownDatabase):
		h.writeErrorDetails(w, "Unknown database", err, http.StatusBadRequest)
	default:
		h.writeErrorDetails(w, "Invalid session update", err, http.StatusBadRequest)
	}
}
