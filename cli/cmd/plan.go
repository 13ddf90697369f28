// ABOUTME: Shared plan sourcing and rendering for simulate, check, and wizard
// ABOUTME: Runs plans on the backend or with the local engine when offline

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sqlnova/migration-planner/cli/internal/client"
	"github.com/sqlnova/migration-planner/cli/internal/planfile"
	"github.com/sqlnova/migration-planner/models"
	"github.com/sqlnova/migration-planner/services"
)

// planner runs distributions and renders workbooks
type planner interface {
	Simulate(ctx context.Context, input models.DistributionInput) (*models.DistributionResult, error)
	Export(ctx context.Context, input models.DistributionInput, w io.Writer) error
}

// localPlanner runs the distribution engine in-process
type localPlanner struct {
	sim *services.Simulator
}

func newLocalPlanner() *localPlanner {
	return &localPlanner{sim: services.NewSimulator(nil, 0)}
}

func (p *localPlanner) Simulate(ctx context.Context, input models.DistributionInput) (*models.DistributionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	result, _, err := p.sim.Run(input)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *localPlanner) Export(ctx context.Context, input models.DistributionInput, w io.Writer) error {
	result, err := p.Simulate(ctx, input)
	if err != nil {
		return err
	}
	return services.ExportXLSX(*result, w)
}

func newPlanner(offline bool) planner {
	if offline {
		return newLocalPlanner()
	}
	return client.New(GetAPIURL())
}

// planOptions selects where a plan comes from and which settings to override
type planOptions struct {
	path        string
	environment string
	offline     bool
	strategy    string
	maxDisks    int
}

var planOpts planOptions

// loadPlanInput reads a plan file, or assembles one from the backend inventory
// when only an environment is given. Flag overrides are applied last.
func loadPlanInput(ctx context.Context, opts planOptions) (models.DistributionInput, error) {
	var (
		input models.DistributionInput
		err   error
	)

	switch {
	case opts.path != "":
		input, err = planfile.Load(opts.path)
	case opts.environment != "":
		if opts.offline {
			return input, fmt.Errorf("--environment needs the backend inventory; use --plan with --offline")
		}
		input, err = inventoryInput(ctx, client.New(GetAPIURL()), opts.environment)
	default:
		return input, fmt.Errorf("either --plan or --environment is required")
	}
	if err != nil {
		return input, err
	}

	if opts.strategy != "" {
		input.Config.DestinationStrategy = models.DestinationStrategy(opts.strategy)
	}
	if opts.maxDisks > 0 {
		input.Config.MaxDataDisksPerNewInstance = opts.maxDisks
	}
	if err := input.Validate(); err != nil {
		return input, fmt.Errorf("invalid plan: %w", err)
	}
	return input, nil
}

// inventoryInput selects every database of every source server in an environment
func inventoryInput(ctx context.Context, c *client.Client, environment string) (models.DistributionInput, error) {
	var input models.DistributionInput

	servers, err := c.ListServers(ctx, environment)
	if err != nil {
		return input, err
	}
	if len(servers) == 0 {
		return input, fmt.Errorf("no source servers in environment %s", environment)
	}

	for _, srv := range servers {
		dbs, err := c.ListDatabases(ctx, srv.Name)
		if err != nil {
			return input, fmt.Errorf("listing databases on %s: %w", srv.Name, err)
		}
		slog.Debug("Selected server databases", "server", srv.Name, "count", len(dbs))
		input.Databases = append(input.Databases, dbs...)
	}

	dest, err := c.Destinations(ctx, environment)
	if err != nil {
		return input, err
	}
	input.ExistingInstances = dest.Destinations
	input.Naming = dest.Naming

	planfile.ApplyDefaults(&input)
	return input, nil
}

// formatGB renders a size in GB with binary units
func formatGB(gb float64) string {
	if gb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(math.Round(gb * (1 << 30))))
}

// maxDiskUsage returns the highest data or log disk usage of an instance
func maxDiskUsage(inst models.SuggestedInstance, usableGB float64) float64 {
	highest := inst.LogDisk.UsagePct(usableGB)
	for _, d := range inst.DataDisks {
		highest = math.Max(highest, d.UsagePct(usableGB))
	}
	return highest
}

// formatPlanHuman renders a distribution result as a text report
func formatPlanHuman(result *models.DistributionResult) string {
	var sb strings.Builder
	s := result.Summary

	fmt.Fprintf(&sb, "Migration Plan %s\n", result.ID)
	fmt.Fprintf(&sb, "==============\n\n")
	fmt.Fprintf(&sb, "Databases:   %s\n", humanize.Comma(int64(s.DatabaseCount)))
	fmt.Fprintf(&sb, "Instances:   %d (%d new, %d existing)\n", s.InstanceCount, s.NewInstanceCount, s.ExistingInstanceCount)
	fmt.Fprintf(&sb, "Data:        %s\n", formatGB(s.TotalDataGB))
	fmt.Fprintf(&sb, "Log:         %s\n", formatGB(s.TotalLogGB))
	fmt.Fprintf(&sb, "New disks:   %d x %s usable\n", s.NewDataDiskCount, formatGB(result.DiskUsableGB))
	fmt.Fprintf(&sb, "Status:      %d ok, %d warning, %d critical\n\n", s.OKCount, s.WarningCount, s.CriticalCount)

	for _, inst := range result.Instances {
		kind := "new"
		if inst.IsExisting {
			kind = "existing"
		}
		fmt.Fprintf(&sb, "%s (%s) [%s]\n", inst.Name, kind, inst.Status)
		fmt.Fprintf(&sb, "  Databases: %d   Data: %s   Log: %s\n",
			len(inst.Databases), formatGB(inst.TotalDataGB), formatGB(inst.TotalLogGB))
		for _, d := range inst.DataDisks {
			fmt.Fprintf(&sb, "  %s %s (%.0f%%)\n", d.Letter, formatGB(d.UsedGB), d.UsagePct(result.DiskUsableGB))
		}
		fmt.Fprintf(&sb, "  %s %s log (%.0f%%)\n", inst.LogDisk.Letter, formatGB(inst.LogDisk.UsedGB),
			inst.LogDisk.UsagePct(result.DiskUsableGB))
		for _, a := range inst.Alerts {
			fmt.Fprintf(&sb, "  [%s] %s\n", a.Severity, a.Message)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
