package ui

import (
	"fmt"
	"os"
	"time"

	"shuttle/pkg/sdk"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action is what the dashboard asks its caller to do after it exits.
type Action int

const (
	ActionQuit Action = iota
	ActionLogs
)

const recentMigrations = 5

type focus int

const (
	focusProcesses focus = iota
	focusServers
)

type model struct {
	processes  table.Model
	servers    table.Model
	focus      focus
	overview   *sdk.Overview
	fleet      []sdk.Server
	procs      []sdk.ProcessWithServer
	migrations []sdk.MigrationWithDetails
	wizard     *MigrateModel
	err        error
	width      int
	height     int
	message    string
	action     Action
	client     *sdk.Client
}

type dashboardDataMsg struct {
	overview   *sdk.Overview
	servers    []sdk.Server
	processes  []sdk.ProcessWithServer
	migrations []sdk.MigrationWithDetails
}

type errMsg error

type clearMessageMsg struct{}

type tickMsg time.Time

func newTable(columns []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(focused),
		table.WithHeight(6),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func newModel(client *sdk.Client) model {
	return model{
		processes: newTable([]table.Column{
			{Title: "Sts", Width: 3},
			{Title: "ID", Width: 14},
			{Title: "Type", Width: 18},
			{Title: "Status", Width: 10},
			{Title: "Server", Width: 12},
		}, true),
		servers: newTable([]table.Column{
			{Title: "Sts", Width: 3},
			{Title: "ID", Width: 12},
			{Title: "Name", Width: 12},
			{Title: "Address", Width: 18},
			{Title: "Role", Width: 10},
			{Title: "CPU", Width: 5},
			{Title: "Mem", Width: 7},
			{Title: "Procs", Width: 5},
		}, false),
		client: client,
	}
}

// RunDashboard blocks until the user leaves the dashboard.
func RunDashboard(client *sdk.Client) Action {
	program := tea.NewProgram(newModel(client), tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	finalModel, err := program.Run()
	if err != nil {
		fmt.Printf("Error running dashboard: %v", err)
		os.Exit(1)
	}
	if m, ok := finalModel.(model); ok {
		return m.action
	}
	return ActionQuit
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchDataCmd(m.client), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := (msg.Height - 20) / 2
		if rows < 3 {
			rows = 3
		}
		m.processes.SetHeight(rows)
		m.servers.SetHeight(rows)
		if m.wizard != nil {
			w, cmd := m.wizard.Update(msg)
			m.wizard = &w
			return m, cmd
		}
		return m, nil
	case dashboardDataMsg:
		m.err = nil
		m.overview = msg.overview
		m.fleet = msg.servers
		m.procs = msg.processes
		m.migrations = msg.migrations
		m.updateTables()
		return m, nil
	case tickMsg:
		return m, tea.Batch(fetchDataCmd(m.client), tickCmd())
	case errMsg:
		m.err = msg
		return m, nil
	case clearMessageMsg:
		m.message = ""
		return m, nil
	case MigrateDoneMsg:
		m.wizard = nil
		m.message = msg.Summary
		return m, tea.Batch(fetchDataCmd(m.client), clearMessageAfter(4*time.Second))
	case MigrateCancelMsg:
		m.wizard = nil
		return m, nil
	}

	if m.wizard != nil {
		w, cmd := m.wizard.Update(msg)
		m.wizard = &w
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			m.action = ActionQuit
			return m, tea.Quit
		case "l":
			m.action = ActionLogs
			return m, tea.Quit
		case "r":
			return m, fetchDataCmd(m.client)
		case "tab":
			if m.focus == focusProcesses {
				m.focus = focusServers
				m.processes.Blur()
				m.servers.Focus()
			} else {
				m.focus = focusProcesses
				m.servers.Blur()
				m.processes.Focus()
			}
			return m, nil
		case "m":
			if m.focus != focusProcesses {
				return m, nil
			}
			proc := m.selectedProcess()
			if proc == nil {
				return m, nil
			}
			if proc.ServerID == nil {
				m.message = fmt.Sprintf("Process %s is not assigned to a server", proc.ID)
				return m, clearMessageAfter(2 * time.Second)
			}
			if proc.Status == "migrating" {
				m.message = fmt.Sprintf("Process %s is already migrating", proc.ID)
				return m, clearMessageAfter(2 * time.Second)
			}
			w := NewMigrateModel(m.client, *proc, m.fleet, m.width, m.height)
			m.wizard = &w
			return m, w.Init()
		}
	}

	var cmd tea.Cmd
	if m.focus == focusProcesses {
		m.processes, cmd = m.processes.Update(msg)
	} else {
		m.servers, cmd = m.servers.Update(msg)
	}
	return m, cmd
}

func (m model) selectedProcess() *sdk.ProcessWithServer {
	row := m.processes.SelectedRow()
	if len(row) < 2 {
		return nil
	}
	for i := range m.procs {
		if m.procs[i].ID == row[1] {
			return &m.procs[i]
		}
	}
	return nil
}

func (m *model) updateTables() {
	procRows := make([]table.Row, 0, len(m.procs))
	for _, p := range m.procs {
		procRows = append(procRows, table.Row{
			StatusIcon(p.Status),
			p.ID,
			p.Type,
			p.Status,
			ServerLabel(p.Server, "unassigned"),
		})
	}
	m.processes.SetRows(procRows)

	srvRows := make([]table.Row, 0, len(m.fleet))
	for _, s := range m.fleet {
		srvRows = append(srvRows, table.Row{
			StatusIcon(s.Status),
			s.ID,
			s.Name,
			fmt.Sprintf("%s:%d", s.Host, s.Port),
			s.Role,
			fmt.Sprintf("%d%%", s.CPUUsage),
			s.MemoryUsage,
			fmt.Sprintf("%d", s.ProcessCount),
		})
	}
	m.servers.SetRows(srvRows)
}

func (m model) overviewLine() string {
	if m.overview == nil {
		return "Loading overview..."
	}
	return fmt.Sprintf("Processes: %d  |  Active migrations: %d  |  Online nodes: %d  |  Success rate: %s",
		m.overview.TotalProcesses, m.overview.ActiveMigrations, m.overview.ServerNodes, m.overview.SuccessRate)
}

func (m model) migrationLines() string {
	if len(m.migrations) == 0 {
		return descStyle.Render("No migrations yet")
	}
	now := time.Now()
	out := ""
	for i, mg := range m.migrations {
		if i == recentMigrations {
			break
		}
		line := fmt.Sprintf("%s %-12s %s -> %s  %s  %s",
			StatusIcon(mg.Status),
			mg.ProcessID,
			ServerLabel(mg.SourceServer, mg.SourceServerID),
			ServerLabel(mg.TargetServer, mg.TargetServerID),
			mg.Status,
			descStyle.Render(Since(mg.StartedAt, now)),
		)
		if mg.ErrorMessage != nil {
			line += "  " + errorStyle.Render(truncate(*mg.ErrorMessage, 48))
		}
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.wizard != nil {
		return m.wizard.View()
	}

	title := headerStyle.Render("SHUTTLE")
	clock := subHeaderStyle.Render(time.Now().Format("Mon Jan 2 15:04:05"))
	hostInfo := fmt.Sprintf("Coordinator: %s", m.client.BaseURL())

	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, title, clock, hostInfo, m.overviewLine()))

	procsBox := baseStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Processes"), m.processes.View()))
	serversBox := baseStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Servers"), m.servers.View()))
	migrationsBox := baseStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Recent migrations"), m.migrationLines()))

	footer := lipgloss.NewStyle().MarginLeft(2).Render(
		helpLine("↑/↓", "navigate", "tab", "switch table", "m", "migrate", "l", "logs", "r", "refresh", "q", "quit"))
	if m.err != nil {
		footer = lipgloss.NewStyle().MarginLeft(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err))) + "\n" + footer
	} else if m.message != "" {
		footer = lipgloss.NewStyle().MarginLeft(2).Render(messageStyle.Render(m.message)) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		headerBox,
		procsBox,
		serversBox,
		migrationsBox,
		footer,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearMessageMsg{} })
}

func fetchDataCmd(client *sdk.Client) tea.Cmd {
	return func() tea.Msg {
		overview, err := client.Overview()
		if err != nil {
			return errMsg(err)
		}
		servers, err := client.ListServers()
		if err != nil {
			return errMsg(err)
		}
		processes, err := client.ListProcesses()
		if err != nil {
			return errMsg(err)
		}
		migrations, err := client.ListMigrations()
		if err != nil {
			return errMsg(err)
		}
		return dashboardDataMsg{overview: overview, servers: servers, processes: processes, migrations: migrations}
	}
}
