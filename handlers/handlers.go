// ABOUTME: HTTP handlers for the migration planner API
// ABOUTME: Wires inventory, simulation, and session services to JSON endpoints

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

// maxRequestBodySize limits JSON request bodies to 1MB
const maxRequestBodySize = 1 << 20

// Handler serves the migration planner API
type Handler struct {
	cfg       *config.Config
	cache     *cache.Cache
	inventory *services.InventoryService
	simulator *services.Simulator
	sessions  *services.SessionService
}

// NewHandler creates a handler with an empty inventory.
// Both arguments may be nil, which tests rely on.
func NewHandler(cfg *config.Config, c *cache.Cache) *Handler {
	if c == nil {
		c = cache.New(5 * time.Minute)
	}

	cacheTTL, sessionTTL, prefix := 5*time.Minute, time.Hour, "SQLNOVA"
	if cfg != nil {
		cacheTTL = time.Duration(cfg.CacheTTL) * time.Second
		sessionTTL = time.Duration(cfg.SessionTTL) * time.Second
		prefix = cfg.InstanceNamePrefix
	}

	return &Handler{
		cfg:   cfg,
		cache: c,
		inventory: services.NewInventoryService(models.Inventory{}, services.InventoryOptions{
			Cache:      c,
			CacheTTL:   cacheTTL,
			NamePrefix: prefix,
		}),
		simulator: services.NewSimulator(c, cacheTTL),
		sessions:  services.NewSessionService(c, sessionTTL),
	}
}

// SetInventoryService replaces the inventory backing the inventory endpoints
func (h *Handler) SetInventoryService(inv *services.InventoryService) {
	h.inventory = inv
}

// withServerDefaults fills unset disk geometry from DISK_TOTAL_GB and DISK_RESERVED_GB
func (h *Handler) withServerDefaults(c models.CapacityConfig) models.CapacityConfig {
	if h.cfg != nil && h.cfg.DiskTotalGB > 0 && c.DiskTotalGB == 0 {
		c.DiskTotalGB = h.cfg.DiskTotalGB
		if c.DiskReservedGB == 0 {
			c.DiskReservedGB = h.cfg.DiskReservedGB
		}
	}
	return c.WithDefaults()
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeErrorDetails writes a JSON error response carrying the underlying cause
func (h *Handler) writeErrorDetails(w http.ResponseWriter, message string, err error, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error:   message,
		Details: err.Error(),
		Code:    code,
	})
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes
// the error response and returns false.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, "Request body too large", http.StatusBadRequest)
			return false
		}
		h.writeErrorDetails(w, "Invalid JSON", err, http.StatusBadRequest)
		return false
	}
	return true
}
