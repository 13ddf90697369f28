// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods and handlers

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/v1/health")
	Handler http.HandlerFunc // Handler function
	Write   bool             // runs the engine or mutates state; gets the stricter rate limit
}

// Pattern returns the ServeMux pattern of the route
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Inventory
		{Method: http.MethodGet, Path: "/api/v1/inventory/servers", Handler: h.ListServers},
		{Method: http.MethodGet, Path: "/api/v1/inventory/servers/{name}/databases", Handler: h.ListServerDatabases},
		{Method: http.MethodGet, Path: "/api/v1/inventory/destinations", Handler: h.ListDestinations},
		{Method: http.MethodGet, Path: "/api/v1/inventory/naming", Handler: h.GetNaming},
		{Method: http.MethodPost, Path: "/api/v1/inventory/refresh", Handler: h.RefreshInventory, Write: true},

		// Stateless simulation
		{Method: http.MethodPost, Path: "/api/v1/migration/simulate", Handler: h.Simulate, Write: true},
		{Method: http.MethodPost, Path: "/api/v1/migration/export", Handler: h.ExportSimulation, Write: true},

		// Planning sessions
		{Method: http.MethodPost, Path: "/api/v1/migration/sessions", Handler: h.CreateSession, Write: true},
		{Method: http.MethodGet, Path: "/api/v1/migration/sessions/{id}", Handler: h.GetSession},
		{Method: http.MethodDelete, Path: "/api/v1/migration/sessions/{id}", Handler: h.DeleteSession, Write: true},
		{Method: http.MethodPut, Path: "/api/v1/migration/sessions/{id}/config", Handler: h.UpdateSessionConfig, Write: true},
		{Method: http.MethodPut, Path: "/api/v1/migration/sessions/{id}/selection", Handler: h.UpdateSessionSelection, Write: true},
		{Method: http.MethodPut, Path: "/api/v1/migration/sessions/{id}/overrides", Handler: h.SetSessionOverride, Write: true},
		{Method: http.MethodDelete, Path: "/api/v1/migration/sessions/{id}/overrides", Handler: h.ClearSessionOverrides, Write: true},
		{Method: http.MethodGet, Path: "/api/v1/migration/sessions/{id}/export", Handler: h.ExportSession, Write: true},

		// Documentation
		{Method: http.MethodGet, Path: "/api/v1/openapi.yaml", Handler: h.OpenAPISpec},
	}
}
