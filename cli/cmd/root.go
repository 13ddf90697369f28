// ABOUTME: Root command for the sqlnova-planner CLI
// ABOUTME: Handles global flags, logging, and configuration

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqlnova/migration-planner/logger"
)

var (
	apiURL     string
	jsonOutput bool
	verbose    bool
)

const defaultAPIURL = "http://localhost:8080"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "sqlnova-planner",
	Short: "CLI for the SQL Nova migration planner",
	Long: `sqlnova-planner is a command-line interface for the SQL Nova migration planner.

It distributes source databases onto destination SQL Server instances, checks plans
for over-capacity disks in CI/CD pipelines, and exports plans as Excel workbooks.

Environment Variables:
  SQLNOVA_API_URL  Backend API URL (default: http://localhost:8080)
  LOG_LEVEL        Log level for diagnostics on stderr (default: warn)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		if verbose {
			level = "debug"
		}
		slog.SetDefault(logger.New(os.Stderr, level, "text"))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides SQLNOVA_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("SQLNOVA_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
