// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports integration configuration and cache occupancy

package handlers

import (
	"net/http"
	"time"

	"github.com/sqlnova/migration-planner/models"
)

// Health returns API health status including integrations and cache status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    "ok",
		SQLServer: "not_configured",
		VSphere:   "not_configured",
		Inventory: "empty",
		CacheStatus: models.CacheStatus{
			Simulations: len(h.cache.Keys("simulate:")),
			Sessions:    len(h.cache.Keys("session:")),
			Inventory:   len(h.cache.Keys("inventory:")),
			Entries:     h.cache.Len(),
		},
		Timestamp: time.Now().UTC(),
	}

	if h.cfg != nil {
		if h.cfg.SQLServerConfigured() {
			resp.SQLServer = "ok"
		}
		if h.cfg.VSphereConfigured() {
			resp.VSphere = "ok"
		}
	}

	switch {
	case h.inventory.Live():
		resp.Inventory = "live"
	case len(h.inventory.ListServers("")) > 0:
		resp.Inventory = "static"
	}

	h.writeJSON(w, http.StatusOK, resp)
}
