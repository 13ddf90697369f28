// ABOUTME: Capacity planning wizard as a bubbletea model
// ABOUTME: Uses huh forms with visual progress indicator for step navigation

package wizard

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sqlnova/migration-planner/cli/internal/tui/icons"
	"github.com/sqlnova/migration-planner/cli/internal/tui/styles"
	"github.com/sqlnova/migration-planner/models"
)

// WizardCompleteMsg is sent when the wizard finishes successfully
type WizardCompleteMsg struct {
	Config models.CapacityConfig
}

// WizardCancelledMsg is sent when the wizard is cancelled
type WizardCancelledMsg struct{}

// Wizard manages the capacity configuration flow as a bubbletea model
type Wizard struct {
	config models.CapacityConfig
	form   *huh.Form
	step   int
	width  int

	// Form field values (strings for huh)
	diskTotal    string
	diskReserved string
	maxDisks     string
	strategy     string
	policy       string
	customNames  string
}

// Step names for progress indicator
var stepNames = []string{"Disk Geometry", "Placement", "Naming"}

// createTheme returns a custom huh theme matching the frontend React colors
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	cyan := lipgloss.Color("#06B6D4")      // Cyan-500 - primary
	cyanLight := lipgloss.Color("#22D3EE") // Cyan-400 - accents
	blue := lipgloss.Color("#3B82F6")      // Blue-500 - info
	gray := lipgloss.Color("#9CA3AF")      // Gray-400 - muted
	grayLight := lipgloss.Color("#E5E7EB") // Gray-200 - text
	red := lipgloss.Color("#F87171")       // Red-400 - errors
	slate := lipgloss.Color("#334155")     // Slate-700 - borders

	// Group styles (section headers)
	t.Group.Title = lipgloss.NewStyle().
		Foreground(cyan).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	// Focused field styles
	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(cyan)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(cyanLight).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	// Select field styles
	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(cyan).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(cyan).
		Bold(true)
	t.Focused.NextIndicator = lipgloss.NewStyle().
		Foreground(cyan).
		MarginLeft(1).
		SetString("→")
	t.Focused.PrevIndicator = lipgloss.NewStyle().
		Foreground(cyan).
		MarginRight(1).
		SetString("←")

	// Text input styles
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(cyan)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(cyan)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	// Button styles
	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(blue).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(slate).
		Padding(0, 2).
		MarginRight(1)

	// Blurred field styles (inherit from focused with muted colors)
	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}

// Common virtual disk sizes
var diskTotalOptions = []huh.Option[string]{
	huh.NewOption("250 GB", "250"),
	huh.NewOption("500 GB (standard)", "500"),
	huh.NewOption("1000 GB", "1000"),
	huh.NewOption("2000 GB", "2000"),
}

// Space held back on every disk for growth and maintenance
var diskReservedOptions = []huh.Option[string]{
	huh.NewOption("None", "0"),
	huh.NewOption("25 GB", "25"),
	huh.NewOption("50 GB (standard)", "50"),
	huh.NewOption("100 GB", "100"),
	huh.NewOption("200 GB", "200"),
}

var strategyOptions = []huh.Option[string]{
	huh.NewOption("New instances only", string(models.StrategyNewOnly)),
	huh.NewOption("Existing instances only", string(models.StrategyExistingOnly)),
	huh.NewOption("Existing first, then new", string(models.StrategyBoth)),
}

var policyOptions = []huh.Option[string]{
	huh.NewOption("Expandable to all data disk letters", string(models.PolicyExpandable)),
	huh.NewOption("Provisioned disks only", string(models.PolicyProvisioned)),
}

// New creates a new wizard prefilled from a capacity config
func New(cfg models.CapacityConfig) *Wizard {
	defaults := models.DefaultCapacityConfig()
	cfg = cfg.WithDefaults()
	if cfg.MaxDataDisksPerNewInstance < 1 {
		cfg.MaxDataDisksPerNewInstance = defaults.MaxDataDisksPerNewInstance
	}

	w := &Wizard{
		config:       cfg,
		step:         1,
		diskTotal:    formatNumber(cfg.DiskTotalGB),
		diskReserved: formatNumber(cfg.DiskReservedGB),
		maxDisks:     strconv.Itoa(cfg.MaxDataDisksPerNewInstance),
		strategy:     string(cfg.DestinationStrategy),
		policy:       string(cfg.ExistingCapacityPolicy),
		customNames:  strings.Join(cfg.CustomInstanceNames, ", "),
	}

	w.form = w.createStep1Form()
	return w
}

func (w *Wizard) createStep1Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Disk size").
				Description("Use ↑/↓ to select, Enter to confirm").
				Options(withCurrent(diskTotalOptions, w.diskTotal, "GB")...).
				Value(&w.diskTotal),
			huh.NewSelect[string]().
				Title("Reserved per disk").
				Description("Space kept free on every data and log disk").
				Options(withCurrent(diskReservedOptions, w.diskReserved, "GB")...).
				Value(&w.diskReserved).
				Validate(func(s string) error {
					return validateGeometry(w.diskTotal, s)
				}),
		).Title("Step 1: Disk Geometry").
			Description("Configure the virtual disks attached to each destination instance"),
	).WithTheme(createTheme())
}

func (w *Wizard) createStep2Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data disks per new instance").
				Description("Type a number from 1 to 18 and press Enter").
				Placeholder("e.g., 4").
				CharLimit(2).
				Value(&w.maxDisks).
				Validate(validateDiskCount),
			huh.NewSelect[string]().
				Title("Destination strategy").
				Description("Which instances may receive databases").
				Options(strategyOptions...).
				Value(&w.strategy),
			huh.NewSelect[string]().
				Title("Existing instance capacity").
				Description("How far existing instances may grow").
				Options(policyOptions...).
				Value(&w.policy),
		).Title("Step 2: Placement").
			Description("Control where databases may be placed"),
	).WithTheme(createTheme())
}

func (w *Wizard) createStep3Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Custom instance names").
				Description("Optional. Comma or newline separated, used before generated names").
				Placeholder("SQLNOVA-PRD-FIN, SQLNOVA-PRD-HR").
				CharLimit(2000).
				Value(&w.customNames).
				Validate(validateCustomNames),
		).Title("Step 3: Naming").
			Description("Name new instances explicitly or leave empty for generated names"),
	).WithTheme(createTheme())
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		form, cmd := w.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			w.form = f
		}
		return w, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return w, func() tea.Msg { return WizardCancelledMsg{} }
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.advanceStep()
	}

	return w, cmd
}

func (w *Wizard) advanceStep() (tea.Model, tea.Cmd) {
	switch w.step {
	case 1:
		w.config.DiskTotalGB, _ = strconv.ParseFloat(w.diskTotal, 64)
		w.config.DiskReservedGB, _ = strconv.ParseFloat(w.diskReserved, 64)
		w.step = 2
		w.form = w.createStep2Form()
		return w, w.form.Init()

	case 2:
		w.config.MaxDataDisksPerNewInstance, _ = strconv.Atoi(strings.TrimSpace(w.maxDisks))
		w.config.DestinationStrategy = models.DestinationStrategy(w.strategy)
		w.config.ExistingCapacityPolicy = models.ExistingCapacityPolicy(w.policy)
		w.step = 3
		w.form = w.createStep3Form()
		return w, w.form.Init()

	case 3:
		w.config.CustomInstanceNames = parseCustomNames(w.customNames)
		cfg := w.config
		return w, func() tea.Msg {
			return WizardCompleteMsg{Config: cfg}
		}
	}

	return w, nil
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder

	sb.WriteString(w.renderProgress())
	sb.WriteString("\n\n")
	sb.WriteString(w.form.View())

	return sb.String()
}

// renderProgress renders the step progress indicator
func (w *Wizard) renderProgress() string {
	width := w.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		if stepNum < w.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		} else if stepNum == w.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		} else {
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	// Progress bar line format: "│  " + bar + " │" = 5 chars overhead
	barWidth := width - 5
	filledWidth := (w.step * barWidth) / len(stepNames)
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))

	styledTitle := titleStyle.Render("Progress")
	titleWidth := lipgloss.Width("Progress")

	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", max(0, width-5-titleWidth)) + "┐"
	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"
	progressLinePadded := "│  " + filledBar + emptyBar + " │"
	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}

// Config returns the collected capacity config
func (w *Wizard) Config() models.CapacityConfig {
	return w.config
}

// withCurrent appends the current value as an option when it is not one of the presets
func withCurrent(options []huh.Option[string], current, unit string) []huh.Option[string] {
	for _, o := range options {
		if o.Value == current {
			return options
		}
	}
	out := make([]huh.Option[string], 0, len(options)+1)
	out = append(out, options...)
	return append(out, huh.NewOption(current+" "+unit+" (current)", current))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validateDiskCount(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 || v > models.MaxDataDisks {
		return fmt.Errorf("must be between 1 and %d", models.MaxDataDisks)
	}
	return nil
}

func validateGeometry(total, reserved string) error {
	t, err := strconv.ParseFloat(total, 64)
	if err != nil {
		return fmt.Errorf("invalid disk size")
	}
	r, err := strconv.ParseFloat(reserved, 64)
	if err != nil {
		return fmt.Errorf("invalid reserved size")
	}
	if r >= t {
		return fmt.Errorf("reserved space must be smaller than the disk")
	}
	return nil
}

// parseCustomNames splits a comma or newline separated list, dropping blanks
func parseCustomNames(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	var names []string
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func validateCustomNames(s string) error {
	seen := make(map[string]bool)
	for _, name := range parseCustomNames(s) {
		if !models.ValidInstanceName(name) {
			return fmt.Errorf("%q is not a valid instance name", name)
		}
		key := strings.ToUpper(name)
		if seen[key] {
			return fmt.Errorf("%q is listed twice", name)
		}
		seen[key] = true
	}
	return nil
}
