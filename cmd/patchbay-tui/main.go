// patchbay-tui is a terminal dashboard for inspecting a saved patchbay
// project: device browser, setup audit and signal-chain view.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	chainBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(1, 2)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	devicesView
	auditView
	chainView
	viewCount
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type model struct {
	store       *patch.Store
	auditor     *checks.Auditor
	projectName string
	currentView view
	deviceTable table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	startTime   time.Time
	stats       patch.Statistics
	issues      []checks.Issue
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func initialModel(store *patch.Store, projectName string) model {
	columns := []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Name", Width: 22},
		{Title: "Kind", Width: 12},
		{Title: "Ports", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	m := model{
		store:       store,
		auditor:     checks.NewAuditor(),
		projectName: projectName,
		currentView: dashboardView,
		deviceTable: t,
		help:        help.New(),
		keys:        keys,
		startTime:   time.Now(),
	}
	m.refresh()
	return m
}

func (m *model) refresh() {
	m.stats = m.store.GetStatistics()
	m.issues = m.auditor.Audit(m.store.Snapshot())

	rows := make([]table.Row, 0, m.stats.DeviceCount)
	for _, d := range m.store.Devices() {
		rows = append(rows, table.Row{
			d.ID, d.Name, d.Kind, fmt.Sprintf("%d", len(d.Ports)),
		})
	}
	m.deviceTable.SetRows(rows)
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount

		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = viewCount - 1
			} else {
				m.currentView--
			}
		}
	}

	if m.currentView == devicesView {
		m.deviceTable, cmd = m.deviceTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	title := "Patchbay"
	if m.projectName != "" {
		title += " - " + m.projectName
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case devicesView:
		s.WriteString(m.renderDevices())
	case auditView:
		s.WriteString(m.renderAudit())
	case chainView:
		s.WriteString(m.renderChain())
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Dashboard", "Devices", "Audit", "Signal Chain"}
	var renderedTabs []string

	for i, tab := range tabs {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderDashboard() string {
	uptime := time.Since(m.startTime).Round(time.Second)

	warnings := 0
	for _, issue := range m.issues {
		if issue.Severity >= checks.Warning {
			warnings++
		}
	}

	statsContent := fmt.Sprintf(`Patch
Devices:   %d
Cables:    %d
Ports:     %d
Session:   %s`,
		m.stats.DeviceCount,
		m.stats.CableCount,
		m.stats.PortCount,
		uptime,
	)

	loops := algorithms.AnalyzeCycles(algorithms.DetectCycles(m.store.Cables()))
	auditContent := fmt.Sprintf(`Audit
Issues:    %d
Warnings:  %d
Loops:     %d
Self:      %d`,
		len(m.issues),
		warnings,
		loops.TotalCycles,
		loops.SelfPatches,
	)

	return contentStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			statsBoxStyle.Render(statsContent),
			statsBoxStyle.Render(auditContent)),
	)
}

func (m model) renderDevices() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Device Browser"))
	s.WriteString("\n\n")
	s.WriteString(m.deviceTable.View())
	return contentStyle.Render(s.String())
}

func (m model) renderAudit() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Setup Audit"))
	s.WriteString("\n\n")

	if len(m.issues) == 0 {
		s.WriteString("No issues found")
		return contentStyle.Render(s.String())
	}

	for _, issue := range m.issues {
		line := fmt.Sprintf("%s  %s", issue.Severity, issue.Message)
		switch {
		case issue.Severity >= checks.Error:
			s.WriteString(errorStyle.Render(line))
		case issue.Severity == checks.Warning:
			s.WriteString(warnStyle.Render(line))
		default:
			s.WriteString(infoStyle.Render(line))
		}
		s.WriteString("\n")
	}
	return contentStyle.Render(s.String())
}

// renderChain walks each cable and prints the signal path in wiring
// order, one hop per line.
func (m model) renderChain() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Signal Chain"))
	s.WriteString("\n\n")

	cables := m.store.Cables()
	if len(cables) == 0 {
		s.WriteString(chainBoxStyle.Render("No cables patched"))
		return contentStyle.Render(s.String())
	}

	var chain strings.Builder
	for _, c := range cables {
		chain.WriteString(fmt.Sprintf("%s:%s -[%s]-> %s:%s\n",
			m.deviceName(c.SourceDeviceID), c.SourcePortID,
			signal.Label(c.Signal),
			m.deviceName(c.TargetDeviceID), c.TargetPortID))
	}
	s.WriteString(chainBoxStyle.Render(chain.String()))
	return contentStyle.Render(s.String())
}

func (m model) deviceName(id string) string {
	if d, err := m.store.GetDevice(id); err == nil {
		return d.Name
	}
	return id
}

func main() {
	dataDir := flag.String("data", "./data", "Project data directory")
	compress := flag.Bool("compress", false, "Read snappy-compressed projects")
	flag.Parse()

	store := patch.NewStore()
	projectName := ""

	if flag.NArg() > 0 {
		projectName = flag.Arg(0)
		projects, err := project.NewFSStore(*dataDir, *compress)
		if err != nil {
			log.Fatalf("Failed to open project store: %v", err)
		}
		doc, err := projects.Load(context.Background(), projectName)
		if err != nil {
			log.Fatalf("Failed to load project %q: %v", projectName, err)
		}
		if err := doc.Apply(store); err != nil {
			log.Fatalf("Failed to apply project: %v", err)
		}
	}

	p := tea.NewProgram(initialModel(store, projectName), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
