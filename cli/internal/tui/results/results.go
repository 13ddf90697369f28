// ABOUTME: Distribution results view with an instance table and disk detail panel
// ABOUTME: Renders per-disk usage bars and alerts for the selected instance

package results

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sqlnova/migration-planner/cli/internal/tui/icons"
	"github.com/sqlnova/migration-planner/cli/internal/tui/styles"
	"github.com/sqlnova/migration-planner/cli/internal/tui/widgets"
	"github.com/sqlnova/migration-planner/models"
)

const (
	barWidth       = 24
	minTableHeight = 3
)

// Results displays a distribution result
type Results struct {
	result *models.DistributionResult
	table  table.Model
	width  int
	height int
}

// New creates a results view for a distribution
func New(result *models.DistributionResult, width, height int) *Results {
	t := table.New(
		table.WithColumns(columns()),
		table.WithRows(rows(result)),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Accent).
		Bold(false)
	t.SetStyles(s)

	r := &Results{result: result, table: t}
	r.SetSize(width, height)
	return r
}

func columns() []table.Column {
	return []table.Column{
		{Title: "Instance", Width: 22},
		{Title: "Type", Width: 8},
		{Title: "DBs", Width: 5},
		{Title: "Data", Width: 10},
		{Title: "Log", Width: 10},
		{Title: "Disks", Width: 6},
		{Title: "Status", Width: 12},
	}
}

func rows(result *models.DistributionResult) []table.Row {
	if result == nil {
		return nil
	}
	out := make([]table.Row, 0, len(result.Instances))
	for _, inst := range result.Instances {
		kind := "new"
		if inst.IsExisting {
			kind = "existing"
		}
		out = append(out, table.Row{
			inst.Name,
			kind,
			strconv.Itoa(len(inst.Databases)),
			formatGB(inst.TotalDataGB),
			formatGB(inst.TotalLogGB),
			strconv.Itoa(len(inst.DataDisks)),
			widgets.StatusText(inst.Status),
		})
	}
	return out
}

// SetSize updates the available space. The table takes the top half.
func (r *Results) SetSize(width, height int) {
	r.width = width
	r.height = height

	tableHeight := height/2 - 2
	if tableHeight < minTableHeight {
		tableHeight = minTableHeight
	}
	r.table.SetHeight(tableHeight)
	if width > 0 {
		r.table.SetWidth(width)
	}
}

// Selected returns the instance under the cursor
func (r *Results) Selected() (models.SuggestedInstance, bool) {
	if r.result == nil {
		return models.SuggestedInstance{}, false
	}
	idx := r.table.Cursor()
	if idx < 0 || idx >= len(r.result.Instances) {
		return models.SuggestedInstance{}, false
	}
	return r.result.Instances[idx], true
}

// Update moves the table cursor
func (r *Results) Update(msg tea.Msg) (*Results, tea.Cmd) {
	var cmd tea.Cmd
	r.table, cmd = r.table.Update(msg)
	return r, cmd
}

// View renders the summary, table, and detail panel
func (r *Results) View() string {
	if r.result == nil {
		return styles.Subtitle.Render("No plan computed")
	}
	if len(r.result.Instances) == 0 {
		return styles.Subtitle.Render("No databases selected")
	}

	var sb strings.Builder
	sb.WriteString(r.renderSummary())
	sb.WriteString("\n\n")
	sb.WriteString(r.table.View())
	sb.WriteString("\n\n")
	if inst, ok := r.Selected(); ok {
		sb.WriteString(r.renderDetail(inst))
	}
	return sb.String()
}

func (r *Results) renderSummary() string {
	s := r.result.Summary
	parts := []string{
		fmt.Sprintf("%s %s instances (%d new, %d existing)",
			icons.Server.String(), styles.ValueStyle.Render(strconv.Itoa(s.InstanceCount)),
			s.NewInstanceCount, s.ExistingInstanceCount),
		fmt.Sprintf("%s %s databases", icons.Database.String(),
			styles.ValueStyle.Render(humanize.Comma(int64(s.DatabaseCount)))),
		fmt.Sprintf("%s %s new disks", icons.Disk.String(),
			styles.ValueStyle.Render(strconv.Itoa(s.NewDataDiskCount))),
	}
	statuses := fmt.Sprintf("%s  %s  %s",
		styles.StatusOK.Render(fmt.Sprintf("%d ok", s.OKCount)),
		styles.StatusWarning.Render(fmt.Sprintf("%d warning", s.WarningCount)),
		styles.StatusCritical.Render(fmt.Sprintf("%d critical", s.CriticalCount)))

	return strings.Join(parts, "   ") + "\n" + statuses
}

func (r *Results) renderDetail(inst models.SuggestedInstance) string {
	var sb strings.Builder
	usable := r.result.DiskUsableGB

	sb.WriteString(styles.Title.Render(inst.Name))
	sb.WriteString(" ")
	sb.WriteString(widgets.StatusBadge(widgets.LevelFromStatus(inst.Status)))
	sb.WriteString("\n")

	if inst.IsExisting {
		fmt.Fprintf(&sb, "Pre-existing: %d databases, %s data\n",
			inst.PreExistingDBCount, formatGB(inst.PreExistingDataGB))
	}

	for _, d := range inst.DataDisks {
		sb.WriteString(diskLine(d, usable, ""))
	}
	sb.WriteString(diskLine(inst.LogDisk, usable, "log"))

	for _, a := range inst.Alerts {
		sb.WriteString(styles.ForStatus(a.Severity).Render(
			fmt.Sprintf("%s %s", widgets.StatusIcon(widgets.LevelFromStatus(a.Severity)), a.Message)))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func diskLine(d models.DiskInfo, usableGB float64, label string) string {
	pct := d.UsagePct(usableGB)
	suffix := ""
	if label != "" {
		suffix = " " + label
	}
	if d.IsExistingDisk {
		suffix += " (existing)"
	}
	return fmt.Sprintf("%s: %s %5.1f%% %s%s\n", d.Letter, styles.ProgressBar(pct, barWidth), pct,
		formatGB(d.UsedGB), suffix)
}

func formatGB(gb float64) string {
	if gb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(math.Round(gb * (1 << 30))))
}
