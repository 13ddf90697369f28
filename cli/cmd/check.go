// ABOUTME: Check command for the sqlnova-planner CLI
// ABOUTME: Validates a migration plan's disk usage for CI/CD pipelines

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
	"github.com/sqlnova/migration-planner/models"
)

var (
	maxUsageThreshold int
	failOnWarning     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a migration plan for over-capacity disks",
	Long: `Distribute a plan and exit non-zero if any destination instance fails.

An instance fails when it is critical, when its busiest disk exceeds --max-usage,
or when it is a warning and --fail-on-warning is set.

Exit codes:
  0 - All instances passed
  1 - One or more instances failed
  2 - Error (connectivity, invalid plan, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runCheck(ctx, os.Stdout, planOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addPlanFlags(checkCmd)
	checkCmd.Flags().IntVar(&maxUsageThreshold, "max-usage", 100, "Maximum disk usage percentage of usable capacity")
	checkCmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Treat warning instances as failures")
}

// checkResult represents the result of checking a single instance
type checkResult struct {
	name      string
	status    string
	value     float64
	threshold float64
	unit      string
	passed    bool
}

// runCheck executes the plan checks and returns exit code
func runCheck(ctx context.Context, w io.Writer, opts planOptions) int {
	if err := validateMaxUsage(maxUsageThreshold); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	input, err := loadPlanInput(ctx, opts)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	result, err := newPlanner(opts.offline).Simulate(ctx, input)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if len(result.Instances) == 0 {
		fmt.Fprintln(w, "Error: plan produced no destination instances.")
		return 2
	}

	results := performChecks(result, float64(maxUsageThreshold), failOnWarning)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return 1
	}
	return 0
}

// validateMaxUsage ensures the usage threshold is a valid percentage
func validateMaxUsage(maxUsage int) error {
	if maxUsage < 0 || maxUsage > 100 {
		return fmt.Errorf("--max-usage must be between 0 and 100")
	}
	return nil
}

// performChecks checks every destination instance of a plan
func performChecks(result *models.DistributionResult, maxUsage float64, strict bool) []checkResult {
	results := make([]checkResult, 0, len(result.Instances))

	for _, inst := range result.Instances {
		usage := maxDiskUsage(inst, result.DiskUsableGB)
		passed := inst.Status != models.StatusCritical && usage <= maxUsage
		if strict && inst.Status == models.StatusWarning {
			passed = false
		}

		results = append(results, checkResult{
			name:      inst.Name,
			status:    inst.Status,
			value:     usage,
			threshold: maxUsage,
			unit:      "%",
			passed:    passed,
		})
	}

	return results
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s [%s]: busiest disk %.0f%s (threshold: %.0f%s)\n",
			symbol, r.name, r.status, r.value, r.unit, r.threshold, r.unit)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d instance(s) over capacity", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d instance(s) within capacity", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]interface{}, len(results))
	for i, r := range results {
		checks[i] = map[string]interface{}{
			"name":      r.name,
			"status":    r.status,
			"value":     r.value,
			"threshold": r.threshold,
			"unit":      r.unit,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	output := map[string]interface{}{
		"status": status,
		"checks": checks,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
