// ABOUTME: Test helpers for e2e tests
// ABOUTME: Builds a configured server from environment variables and an inventory file

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/handlers"
	"github.com/sqlnova/migration-planner/services"
)

const testInventoryYAML = `servers:
  - name: SQLSRC-01
    environment: PRD
    databases:
      - name: sales
        data_size_mb: 307200
        log_size_mb: 20480
      - name: hr
        data_size_mb: 51200
        log_size_mb: 5120
  - name: SQLSRC-02
    environment: PRD
    databases:
      - name: billing
        data_size_mb: 204800
        log_size_mb: 10240
destinations:
  - name: SQLNOVA-PRD-01
    environment: PRD
    current_data_size_mb: 102400
    current_log_size_mb: 10240
    current_database_count: 2
    current_data_disk_count: 1
`

// withTestEnv points ENV_FILE at a missing file, writes the test inventory,
// and sets the extra vars for the duration of the test.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    withTestEnv(t, map[string]string{
//	        "CORS_ALLOWED_ORIGINS": "https://example.com",
//	    })
//	}
func withTestEnv(t *testing.T, extra map[string]string) {
	t.Helper()

	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "inventory.yaml")
	if err := os.WriteFile(inventoryPath, []byte(testInventoryYAML), 0o600); err != nil {
		t.Fatalf("Failed to write inventory: %v", err)
	}

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("INVENTORY_FILE", inventoryPath)
	t.Setenv("SQLSERVER_USERNAME", "")
	t.Setenv("SQLSERVER_PASSWORD", "")
	t.Setenv("VSPHERE_HOST", "")

	for key, value := range extra {
		t.Setenv(key, value)
	}
}

// newTestServer wires config, inventory, handlers, and middleware the way main does
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	inv, err := services.LoadInventoryFile(cfg.InventoryFile)
	if err != nil {
		t.Fatalf("Failed to load inventory: %v", err)
	}

	c := cache.New(time.Duration(cfg.CacheTTL) * time.Second)
	h := handlers.NewHandler(cfg, c)
	h.SetInventoryService(services.NewInventoryService(inv, services.InventoryOptions{
		Cache:      c,
		NamePrefix: cfg.InstanceNamePrefix,
	}))

	server := httptest.NewServer(handlers.NewRouter(cfg, h))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}
