// ABOUTME: Shared fixtures for handler tests
// ABOUTME: Builds handlers over a static inventory and serves them through a mux

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

func testConfig() *config.Config {
	return &config.Config{
		CacheTTL:           300,
		SessionTTL:         3600,
		InstanceNamePrefix: "SQLNOVA",
	}
}

func testInventory() models.Inventory {
	return models.Inventory{
		Servers: []models.SourceServer{
			{
				Name:        "SQLSRC-02",
				Environment: "PRD",
				Databases: []models.SourceDatabase{
					{InstanceName: "SQLSRC-02", Name: "billing", DataSizeMB: 200 * 1024, LogSizeMB: 10 * 1024},
				},
			},
			{
				Name:        "SQLSRC-01",
				Environment: "PRD",
				Databases: []models.SourceDatabase{
					{InstanceName: "SQLSRC-01", Name: "sales", DataSizeMB: 300 * 1024, LogSizeMB: 20 * 1024},
				},
			},
			{Name: "SQLDEV-01", Environment: "DEV"},
		},
		Destinations: []models.ExistingInstance{
			{Name: "SQLNOVA-PRD-03", Environment: "PRD", CurrentDataSizeMB: 100 * 1024, CurrentDataDiskCount: 1},
		},
	}
}

// newTestHandler returns a handler over the static test inventory
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := testConfig()
	c := cache.New(5 * time.Minute)
	h := NewHandler(cfg, c)
	h.SetInventoryService(services.NewInventoryService(testInventory(), services.InventoryOptions{
		Cache:      c,
		NamePrefix: cfg.InstanceNamePrefix,
	}))
	return h
}

// serve routes a request through a mux so path values are populated
func serve(h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Pattern(), route.Handler)
	}

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func simulateBody() models.DistributionInput {
	return models.DistributionInput{
		Databases: []models.SourceDatabase{
			{InstanceName: "SQLSRC-01", Name: "sales", DataSizeMB: 300 * 1024, LogSizeMB: 20 * 1024},
			{InstanceName: "SQLSRC-02", Name: "billing", DataSizeMB: 200 * 1024, LogSizeMB: 10 * 1024},
		},
		Config: models.CapacityConfig{
			DiskTotalGB:                500,
			DiskReservedGB:             50,
			MaxDataDisksPerNewInstance: 1,
			DestinationStrategy:        models.StrategyNewOnly,
		},
		Naming: models.NamingSource{BaseName: "SQLNOVA-PRD", NextAvailableNumber: 1},
	}
}
