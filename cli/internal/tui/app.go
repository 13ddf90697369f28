// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sqlnova/migration-planner/cli/internal/tui/icons"
	"github.com/sqlnova/migration-planner/cli/internal/tui/results"
	"github.com/sqlnova/migration-planner/cli/internal/tui/styles"
	"github.com/sqlnova/migration-planner/cli/internal/tui/wizard"
	"github.com/sqlnova/migration-planner/models"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenWizard Screen = iota
	ScreenLoading
	ScreenResults
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before the frame stops shrinking
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// Planner computes a distribution for an input
type Planner interface {
	Simulate(ctx context.Context, input models.DistributionInput) (*models.DistributionResult, error)
}

// planComputedMsg is sent when a simulation completes
type planComputedMsg struct {
	result *models.DistributionResult
	err    error
}

// App is the root model for the TUI
type App struct {
	planner    Planner
	input      models.DistributionInput
	screen     Screen
	width      int
	height     int
	err        error
	lastUpdate time.Time

	// Child models
	wizardScreen *wizard.Wizard
	results      *results.Results
}

// New creates a new TUI application that starts on the wizard, prefilled from base
func New(p Planner, base models.DistributionInput) *App {
	a := &App{
		planner: p,
		input:   base,
	}
	a.wizardScreen = wizard.New(base.Config)
	a.screen = ScreenWizard
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.wizardScreen != nil {
		return a.wizardScreen.Init()
	}
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.results != nil {
			a.results.SetSize(a.contentWidth(), a.contentHeight())
		}
		if a.wizardScreen != nil {
			return a.updateWizard(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.screen {
		case ScreenWizard:
			return a.updateWizard(msg)
		case ScreenResults:
			return a.updateResults(msg)
		case ScreenLoading:
			if msg.String() == "q" {
				return a, tea.Quit
			}
		}
		return a, nil

	case wizard.WizardCompleteMsg:
		a.wizardScreen = nil
		a.input.Config = msg.Config
		a.screen = ScreenLoading
		a.err = nil
		return a, a.simulate(a.input)

	case wizard.WizardCancelledMsg:
		a.wizardScreen = nil
		if a.results == nil && a.err == nil {
			return a, tea.Quit
		}
		a.screen = ScreenResults
		return a, nil

	case planComputedMsg:
		a.screen = ScreenResults
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.lastUpdate = time.Now()
		a.results = results.New(msg.result, a.contentWidth(), a.contentHeight())
		return a, nil
	}

	if a.screen == ScreenWizard && a.wizardScreen != nil {
		return a.updateWizard(msg)
	}
	return a, nil
}

// updateWizard forwards messages to the wizard
func (a *App) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.wizardScreen == nil {
		return a, nil
	}
	_, cmd := a.wizardScreen.Update(msg)
	return a, cmd
}

// updateResults handles keys on the results screen
func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "w":
		return a, a.runWizard()
	}

	if a.results != nil {
		var cmd tea.Cmd
		a.results, cmd = a.results.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenWizard:
		content = a.viewWizard()
	case ScreenLoading:
		content = styles.Panel.Width(a.contentWidth()).Render("Computing distribution...")
	case ScreenResults:
		content = a.viewResults()
	}

	return a.wrapWithFrame(content)
}

// viewWizard renders the wizard screen
func (a *App) viewWizard() string {
	if a.wizardScreen != nil {
		return a.wizardScreen.View()
	}
	return ""
}

// viewResults renders the results pane or the last error
func (a *App) viewResults() string {
	if a.err != nil {
		return styles.StatusCritical.Render("Error: "+a.err.Error()) + "\n" +
			styles.Help.Render("Press w to adjust the configuration")
	}
	if a.results == nil {
		return styles.Panel.Width(a.contentWidth()).Render("No plan computed")
	}
	return styles.ActivePanel.Width(a.contentWidth()).Render(a.results.View())
}

// contentWidth calculates the width inside the panel borders
func (a *App) contentWidth() int {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width - panelPadding
}

// contentHeight calculates the height available for pane content
func (a *App) contentHeight() int {
	// Header, footer, the two newlines around content, and the panel border+padding
	return a.height - 8
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("SQL Nova Migration Planner"))

	rightText := ""
	if ctx := a.contextLabel(); ctx != "" {
		rightText = contextStyle.Render(ctx) + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// contextLabel describes the planned environment for the header
func (a *App) contextLabel() string {
	env := a.input.Naming.Environment
	if env == "" {
		env = a.input.Naming.BaseName
	}
	if env == "" {
		return fmt.Sprintf("%d databases", len(a.input.Databases))
	}
	return fmt.Sprintf("%s · %d databases", env, len(a.input.Databases))
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenWizard:
		shortcuts = []string{"↑↓ Select", "Enter Confirm", "Esc Cancel"}
	case ScreenLoading:
		shortcuts = []string{"q Quit"}
	case ScreenResults:
		shortcuts = []string{"↑↓ Instance", "w Reconfigure", "q Quit"}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenResults {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = statusStyle.Render("Computed "+elapsed) + " "
		rightPlainText = "Computed " + elapsed + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}

	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// runWizard transitions to the wizard screen with the current config
func (a *App) runWizard() tea.Cmd {
	a.wizardScreen = wizard.New(a.input.Config)
	if a.width > 0 {
		a.wizardScreen.SetWidth(a.width)
	}
	a.screen = ScreenWizard
	return a.wizardScreen.Init()
}

// simulate runs the planner in the background
func (a *App) simulate(input models.DistributionInput) tea.Cmd {
	return func() tea.Msg {
		result, err := a.planner.Simulate(context.Background(), input)
		return planComputedMsg{result: result, err: err}
	}
}

// Run starts the TUI
func Run(p Planner, base models.DistributionInput) error {
	program := tea.NewProgram(
		New(p, base),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}
