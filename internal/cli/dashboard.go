package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Dashboard panel indices.
const (
	panelProgress = iota
	panelMetrics
	panelFailures
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	offsets     map[string]int
	metricsData *metricsSnapshot
	failures    []failureSnapshot

	// State.
	loading bool
	err     error
}

type metricsSnapshot struct {
	pagesFetched  int
	issuesFetched int
	issuesFailed  int
	fetchFailures int
	rateLimitHits int
	eventCount    int
}

type failureSnapshot struct {
	issue string
	error string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	offsets  map[string]int
	metrics  *metricsSnapshot
	failures []failureSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	offsetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelProgress,
		loading:     true,
		offsets:     make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashboardData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashboardData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.offsets = msg.offsets
		m.metricsData = msg.metrics
		m.failures = msg.failures
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" jira-harvest Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	progressPanel := m.renderProgressPanel()
	metricsPanel := m.renderMetricsPanel()
	failuresPanel := m.renderFailuresPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		failuresPanel = m.applyPanelStyle(panelFailures, failuresPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, progressPanel, metricsPanel, failuresPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		progressPanel = m.applyPanelStyle(panelProgress, progressPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		failuresPanel = m.applyPanelStyle(panelFailures, failuresPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, progressPanel, metricsPanel, failuresPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderProgressPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Progress"))
	b.WriteString("\n")

	if len(m.offsets) == 0 {
		b.WriteString("  No projects harvested yet.")
		return b.String()
	}

	projects := make([]string, 0, len(m.offsets))
	for project := range m.offsets {
		projects = append(projects, project)
	}
	sort.Strings(projects)

	total := 0
	for _, project := range projects {
		offset := m.offsets[project]
		total += offset
		b.WriteString(offsetStyle.Render(fmt.Sprintf("  %-14s %d", project, offset)))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Pages", md.pagesFetched},
		{"Issues", md.issuesFetched},
		{"Failed", md.issuesFailed},
		{"Fetch errors", md.fetchFailures},
		{"Rate limits", md.rateLimitHits},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderFailuresPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Failures"))
	b.WriteString("\n")

	if len(m.failures) == 0 {
		b.WriteString("  No failures recorded.")
		return b.String()
	}

	// Newest failures are at the end of the log; show the last few.
	show := m.failures
	if len(show) > 10 {
		show = show[len(show)-10:]
	}
	for _, f := range show {
		key := failureStyle.Render(f.issue)
		msg := f.error
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", key, msg))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d failure(s)", len(m.failures)))

	return b.String()
}

// loadDashboardData reads offsets, metrics, and failures through the
// wired package vars.
func loadDashboardData() tea.Msg {
	msg := dataLoadedMsg{offsets: make(map[string]int)}

	if StateMgr == nil || Failures == nil {
		msg.err = fmt.Errorf("stores not initialized")
		return msg
	}

	msg.offsets = StateMgr.Offsets()

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		m, err := MetricsCalc.Calculate(since)
		if err != nil {
			msg.err = fmt.Errorf("calculating metrics: %w", err)
			return msg
		}
		msg.metrics = &metricsSnapshot{
			pagesFetched:  m.PagesFetched,
			issuesFetched: m.IssuesFetched,
			issuesFailed:  m.IssuesFailed,
			fetchFailures: m.FetchFailures,
			rateLimitHits: m.RateLimitHits,
			eventCount:    m.EventCount,
		}
	}

	failures, err := Failures.List()
	if err != nil {
		msg.err = fmt.Errorf("reading failure log: %w", err)
		return msg
	}
	for _, f := range failures {
		msg.failures = append(msg.failures, failureSnapshot{issue: f.Issue, error: f.Error})
	}

	return msg
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive terminal dashboard of harvest state",
	Long: `Display a live terminal dashboard with three panels: per-project
resume progress, event-log metrics, and recent transform failures.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
