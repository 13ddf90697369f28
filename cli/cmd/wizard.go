// ABOUTME: Interactive wizard command for tuning a migration plan
// ABOUTME: Launches the TUI with the configuration wizard and results browser

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sqlnova/migration-planner/cli/internal/tui"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactively configure and browse a migration plan",
	Long: `Open a terminal UI that walks through disk geometry, placement, and naming
settings for a plan, runs the distribution, and lets you browse the resulting
instances and their disks.

Example:
  sqlnova-planner wizard --plan plan.yaml --offline
  sqlnova-planner wizard --environment PRD`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		input, err := loadPlanInput(ctx, planOpts)
		if err != nil {
			return err
		}

		if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
			return fmt.Errorf("wizard needs an interactive terminal; use simulate instead")
		}

		return tui.Run(newPlanner(planOpts.offline), input)
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)
	addPlanFlags(wizardCmd)
}
