// ABOUTME: Servers command for the sqlnova-planner CLI
// ABOUTME: Lists inventory source servers with their database counts and sizes

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sqlnova/migration-planner/cli/internal/client"
	"github.com/sqlnova/migration-planner/models"
)

var serversEnvironment string

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List inventory source servers",
	Long:  `Display the source servers known to the backend inventory with their database counts and sizes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runServers(ctx, os.Stdout, serversEnvironment)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(serversCmd)
	serversCmd.Flags().StringVarP(&serversEnvironment, "environment", "e", "", "Only list servers in this environment")
}

// serverSummary is one row of the servers listing
type serverSummary struct {
	Name          string  `json:"name"`
	Environment   string  `json:"environment"`
	DatabaseCount int     `json:"database_count"`
	DataGB        float64 `json:"data_gb"`
	LogGB         float64 `json:"log_gb"`
	Error         string  `json:"error,omitempty"`
}

// runServers lists the servers and returns exit code
func runServers(ctx context.Context, w io.Writer, environment string) int {
	c := client.New(GetAPIURL())

	servers, err := c.ListServers(ctx, environment)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	summaries := make([]serverSummary, 0, len(servers))
	for _, srv := range servers {
		summaries = append(summaries, summarizeServer(ctx, c, srv))
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatServersHuman(summaries))
	}

	if len(summaries) == 0 {
		return 2
	}
	return 0
}

// summarizeServer totals a server's databases. A failed scan is reported, not fatal.
func summarizeServer(ctx context.Context, c *client.Client, srv models.SourceServer) serverSummary {
	summary := serverSummary{Name: srv.Name, Environment: srv.Environment}

	dbs, err := c.ListDatabases(ctx, srv.Name)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}

	summary.DatabaseCount = len(dbs)
	for _, db := range dbs {
		summary.DataGB += db.DataGB()
		summary.LogGB += db.LogGB()
	}
	return summary
}

// formatServersHuman formats the server listing for human readability
func formatServersHuman(summaries []serverSummary) string {
	if len(summaries) == 0 {
		return "No source servers in the inventory."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s %-6s %9s %12s %12s\n", "SERVER", "ENV", "DATABASES", "DATA", "LOG")
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(&sb, "%-24s %-6s %s\n", s.Name, s.Environment, s.Error)
			continue
		}
		fmt.Fprintf(&sb, "%-24s %-6s %9d %12s %12s\n",
			s.Name, s.Environment, s.DatabaseCount, formatGB(s.DataGB), formatGB(s.LogGB))
	}
	return strings.TrimRight(sb.String(), "\n")
}
