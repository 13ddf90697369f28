// ABOUTME: HTTP handlers for source and destination inventory
// ABOUTME: Lists servers, scans databases, probes destinations, and resolves naming

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

// ListServers returns the source servers, optionally filtered by ?environment=.
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	servers := h.inventory.ListServers(r.URL.Query().Get("environment"))
	h.writeJSON(w, http.StatusOK, models.ServersResponse{Servers: servers})
}

// ListServerDatabases returns the databases of one source server.
func (h *Handler) ListServerDatabases(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := services.ValidateServerName(name); err != nil {
		h.writeErrorDetails(w, "Invalid server name", err, http.StatusBadRequest)
		return
	}

	dbs, err := h.inventory.ListDatabases(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrServerNotFound) {
			h.writeError(w, "Server not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to list server databases", "error", err)
		h.writeError(w, "Failed to scan server databases", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, models.DatabasesResponse{Server: name, Databases: dbs})
}

// ListDestinations probes the existing destination instances for ?environment=.
func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("environment")

	dests, err := h.inventory.ProbeDestinations(r.Context(), env)
	if err != nil {
		slog.Error("Failed to probe destinations", "error", err)
		h.writeError(w, "Failed to probe destination instances", http.StatusBadGateway)
		return
	}
	if dests == nil {
		dests = []models.ExistingInstance{}
	}

	h.writeJSON(w, http.StatusOK, models.DestinationsResponse{
		Environment:  env,
		Destinations: dests,
		Naming:       h.inventory.Naming(env),
	})
}

// GetNaming returns the base name and next free number for new instances.
func (h *Handler) GetNaming(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.inventory.Naming(r.URL.Query().Get("environment")))
}

// RefreshInventory drops cached scan results so the next read rescans.
func (h *Handler) RefreshInventory(w http.ResponseWriter, r *http.Request) {
	h.inventory.Refresh()
	w.WriteHeader(http.StatusNoContent)
}
