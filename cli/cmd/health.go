// ABOUTME: Health command for the sqlnova-planner CLI
// ABOUTME: Checks backend connectivity and integration status

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sqlnova/migration-planner/cli/internal/client"
	"github.com/sqlnova/migration-planner/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the migration planner backend and report SQL Server, vSphere, and inventory status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *models.HealthResponse) string {
	return fmt.Sprintf(`Backend:      %s
Status:       %s
SQL Server:   %s
vSphere:      %s
Inventory:    %s
Cached plans: %d
Sessions:     %d
Cache size:   %d entries`, url, resp.Status, resp.SQLServer, resp.VSphere, resp.Inventory,
		resp.CacheStatus.Simulations, resp.CacheStatus.Sessions, resp.CacheStatus.Entries)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *models.HealthResponse) string {
	output := map[string]interface{}{
		"backend":      url,
		"status":       resp.Status,
		"sql_server":   resp.SQLServer,
		"vsphere":      resp.VSphere,
		"inventory":    resp.Inventory,
		"cache_status": resp.CacheStatus,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
