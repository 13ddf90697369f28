// ABOUTME: Shared API response models for health and error payloads
// ABOUTME: JSON-serializable structures used by every endpoint

package models

import "time"

// HealthResponse reports service status and the state of optional integrations
type HealthResponse struct {
	Status      string      `json:"status"`
	SQLServer   string      `json:"sql_server"` // "ok", "not_configured"
	VSphere     string      `json:"vsphere"`    // "ok", "not_configured"
	Inventory   string      `json:"inventory"`  // "live", "static", "empty"
	CacheStatus CacheStatus `json:"cache_status"`
	Timestamp   time.Time   `json:"timestamp"`
}

// CacheStatus counts cached entries by kind
type CacheStatus struct {
	Simulations int `json:"simulations"`
	Sessions    int `json:"sessions"`
	Inventory   int `json:"inventory"`
	Entries     int `json:"entries"` // all entries, including expired ones awaiting cleanup
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}
