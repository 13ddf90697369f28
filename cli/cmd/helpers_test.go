// ABOUTME: Shared fixtures for CLI command tests
// ABOUTME: Serves the real API router over a static inventory and writes plan files

package cmd

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/handlers"
	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

func testInventory() models.Inventory {
	return models.Inventory{
		Servers: []models.SourceServer{
			{
				Name:        "SQLSRC-01",
				Environment: "PRD",
				Databases: []models.SourceDatabase{
					{InstanceName: "SQLSRC-01", Name: "sales", DataSizeMB: 300 * 1024, LogSizeMB: 20 * 1024},
					{InstanceName: "SQLSRC-01", Name: "hr", DataSizeMB: 50 * 1024, LogSizeMB: 5 * 1024},
				},
			},
			{
				Name:        "SQLSRC-02",
				Environment: "PRD",
				Databases: []models.SourceDatabase{
					{InstanceName: "SQLSRC-02", Name: "billing", DataSizeMB: 200 * 1024, LogSizeMB: 10 * 1024},
				},
			},
		},
		Destinations: []models.ExistingInstance{
			{Name: "SQLNOVA-PRD-01", Environment: "PRD", CurrentDataSizeMB: 100 * 1024, CurrentDataDiskCount: 1},
		},
	}
}

// withBackend serves the API over the test inventory and points the CLI at it
func withBackend(t *testing.T) {
	t.Helper()

	cfg := &config.Config{CacheTTL: 300, SessionTTL: 3600, InstanceNamePrefix: "SQLNOVA"}
	c := cache.New(5 * time.Minute)
	h := handlers.NewHandler(cfg, c)
	h.SetInventoryService(services.NewInventoryService(testInventory(), services.InventoryOptions{
		Cache:      c,
		NamePrefix: cfg.InstanceNamePrefix,
	}))

	server := httptest.NewServer(handlers.NewRouter(cfg, h))
	apiURL = server.URL
	t.Cleanup(func() {
		server.Close()
		apiURL = ""
	})
}

// resetFlags restores package flag state after a test
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		planOpts = planOptions{}
		exportPath = ""
		jsonOutput = false
		maxUsageThreshold = 100
		failOnWarning = false
	})
}

const fitsPlan = `databases:
  - instance_name: SQLSRC-01
    name: sales
    data_size_mb: 307200
    log_size_mb: 20480
  - instance_name: SQLSRC-01
    name: hr
    data_size_mb: 51200
    log_size_mb: 5120
config:
  max_data_disks_per_new_instance: 1
naming:
  base_name: SQLNOVA-PRD
  next_available_number: 1
`

// oversizedPlan holds one database larger than a whole disk, so its instance is critical
const oversizedPlan = `databases:
  - instance_name: SQLSRC-03
    name: archive
    data_size_mb: 614400
    log_size_mb: 1024
config:
  max_data_disks_per_new_instance: 1
naming:
  base_name: SQLNOVA-PRD
  next_available_number: 1
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}
