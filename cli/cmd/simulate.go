// ABOUTME: Non-interactive simulate command
// ABOUTME: Distributes a plan on the backend or locally and optionally exports a workbook

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

var exportPath string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Distribute databases onto destination instances",
	Long: `Run the distribution engine for a plan and print the resulting instances.

The plan comes from a YAML or JSON file (--plan), or from every source server of an
environment in the backend inventory (--environment). With --offline the local engine
is used and no backend is contacted.

Example:
  sqlnova-planner simulate --plan plan.yaml --max-disks 2 --export plan.xlsx
  sqlnova-planner simulate --environment PRD --strategy both --json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSimulate(ctx, os.Stdout, planOpts, exportPath)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	addPlanFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&exportPath, "export", "", "Write the plan as an Excel workbook to this path")
}

// addPlanFlags registers the plan source and override flags shared by simulate and check
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&planOpts.path, "plan", "f", "", "Plan file (YAML or JSON)")
	cmd.Flags().StringVarP(&planOpts.environment, "environment", "e", "", "Select all databases of an inventory environment")
	cmd.Flags().BoolVar(&planOpts.offline, "offline", false, "Run the distribution engine locally")
	cmd.Flags().StringVar(&planOpts.strategy, "strategy", "", "Destination strategy: new_only, existing_only, or both")
	cmd.Flags().IntVar(&planOpts.maxDisks, "max-disks", 0, "Maximum data disks per new instance (1-18)")
}

// runSimulate executes the simulation and returns exit code
func runSimulate(ctx context.Context, w io.Writer, opts planOptions, export string) int {
	input, err := loadPlanInput(ctx, opts)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	p := newPlanner(opts.offline)
	result, err := p.Simulate(ctx, input)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	} else {
		fmt.Fprintln(w, formatPlanHuman(result))
	}

	if export != "" {
		if err := exportPlan(ctx, p, input, export); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		if !IsJSONOutput() {
			fmt.Fprintf(w, "\nWorkbook written to %s\n", export)
		}
	}

	return 0
}

func exportPlan(ctx context.Context, p planner, input models.DistributionInput, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := p.Export(ctx, input, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
