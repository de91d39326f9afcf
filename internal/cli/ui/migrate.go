package ui

import (
	"fmt"
	"time"

	"shuttle/pkg/sdk"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type MigrateStep int

const (
	StepTarget MigrateStep = iota
	StepConfirm
	StepRunning
	StepResult
)

const pollInterval = 500 * time.Millisecond

// MigrateModel walks the user through moving one process to another server
// and follows the migration until it is terminal.
type MigrateModel struct {
	client      *sdk.Client
	process     sdk.ProcessWithServer
	step        MigrateStep
	targets     list.Model
	target      *sdk.Server
	spinner     spinner.Model
	migration   *sdk.MigrationWithDetails
	migrationID string
	err         error
	width       int
	height      int
}

type MigrateDoneMsg struct{ Summary string }
type MigrateCancelMsg struct{}

type migrationStartedMsg struct{ id string }
type migrationPolledMsg struct{ m *sdk.MigrationWithDetails }
type migrateErrMsg struct{ err error }
type pollMsg struct{}

type targetItem sdk.Server

func (i targetItem) FilterValue() string { return i.Name }
func (i targetItem) Title() string       { return fmt.Sprintf("%s (%s)", i.Name, i.ID) }
func (i targetItem) Description() string {
	return fmt.Sprintf("%s:%d • %s • cpu %d%% • %s • %d processes", i.Host, i.Port, i.Role, i.CPUUsage, i.MemoryUsage, i.ProcessCount)
}

// MigrationTargets lists the servers a process could move to: online and
// not the one it is on.
func MigrationTargets(proc sdk.ProcessWithServer, servers []sdk.Server) []sdk.Server {
	var out []sdk.Server
	for _, s := range servers {
		if s.Status != "online" {
			continue
		}
		if proc.ServerID != nil && *proc.ServerID == s.ID {
			continue
		}
		out = append(out, s)
	}
	return out
}

func NewMigrateModel(client *sdk.Client, proc sdk.ProcessWithServer, servers []sdk.Server, width, height int) MigrateModel {
	var items []list.Item
	for _, s := range MigrationTargets(proc, servers) {
		items = append(items, targetItem(s))
	}
	l := list.New(items, list.NewDefaultDelegate(), width-8, height-14)
	l.Title = "Select target server"
	l.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return MigrateModel{
		client:  client,
		process: proc,
		step:    StepTarget,
		targets: l,
		spinner: s,
		width:   width,
		height:  height,
	}
}

func (m MigrateModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m MigrateModel) Update(msg tea.Msg) (MigrateModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.targets.SetSize(msg.Width-8, msg.Height-14)
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case migrateErrMsg:
		m.err = msg.err
		if m.step == StepRunning {
			m.step = StepResult
		}
		return m, nil
	case migrationStartedMsg:
		m.migrationID = msg.id
		return m, pollMigration(m.client, msg.id)
	case migrationPolledMsg:
		m.migration = msg.m
		if msg.m.Status == "completed" || msg.m.Status == "failed" {
			m.step = StepResult
			return m, nil
		}
		return m, tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
	case pollMsg:
		return m, pollMigration(m.client, m.migrationID)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			switch m.step {
			case StepTarget:
				return m, func() tea.Msg { return MigrateCancelMsg{} }
			case StepConfirm:
				m.step = StepTarget
				return m, nil
			}
		}
	}

	switch m.step {
	case StepTarget:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
			if i, ok := m.targets.SelectedItem().(targetItem); ok {
				srv := sdk.Server(i)
				m.target = &srv
				m.err = nil
				m.step = StepConfirm
			}
			return m, nil
		}
		m.targets, cmd = m.targets.Update(msg)
		return m, cmd

	case StepConfirm:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.String() == "y" || key.Type == tea.KeyEnter:
				m.step = StepRunning
				return m, tea.Batch(m.spinner.Tick, initiateMigration(m.client, sdk.InitiateMigrationRequest{
					ProcessID:      m.process.ID,
					SourceServerID: Deref(m.process.ServerID, ""),
					TargetServerID: m.target.ID,
				}))
			case key.String() == "n":
				return m, func() tea.Msg { return MigrateCancelMsg{} }
			}
		}

	case StepResult:
		if key, ok := msg.(tea.KeyMsg); ok && (key.Type == tea.KeyEnter || key.String() == "esc") {
			summary := m.summary()
			return m, func() tea.Msg { return MigrateDoneMsg{Summary: summary} }
		}
	}
	return m, nil
}

func (m MigrateModel) summary() string {
	switch {
	case m.migration != nil && m.migration.Status == "completed":
		return fmt.Sprintf("Process %s migrated to %s", m.process.ID, m.target.Name)
	case m.migration != nil && m.migration.ErrorMessage != nil:
		return fmt.Sprintf("Migration of %s failed: %s", m.process.ID, *m.migration.ErrorMessage)
	case m.err != nil:
		return fmt.Sprintf("Migration of %s failed: %v", m.process.ID, m.err)
	}
	return ""
}

func (m MigrateModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Width(m.width).Render(fmt.Sprintf("MIGRATE %s", m.process.ID))
	source := ServerLabel(m.process.Server, Deref(m.process.ServerID, "unassigned"))

	stepTitle := ""
	content := ""
	if m.err != nil && m.step != StepResult {
		content += errorStyle.Render(fmt.Sprintf("Error: %v\n\n", m.err))
	}

	switch m.step {
	case StepTarget:
		stepTitle = fmt.Sprintf("Move %s off %s", m.process.ID, source)
		if len(m.targets.Items()) == 0 {
			content += "\nNo other server is online."
		} else {
			content += "\n" + m.targets.View()
		}
	case StepConfirm:
		stepTitle = "Confirm migration"
		content += fmt.Sprintf("\nProcess: %s (%s)\nFrom:    %s\nTo:      %s\n\n(y/n)",
			m.process.ID, m.process.Type, source, m.target.Name)
	case StepRunning:
		stepTitle = "Migrating"
		status := "pending"
		if m.migration != nil {
			status = m.migration.Status
		}
		content += fmt.Sprintf("\n\n %s Moving %s from %s to %s (%s)\n", m.spinner.View(), m.process.ID, source, m.target.Name, status)
	case StepResult:
		stepTitle = "Result"
		if m.migration != nil && m.migration.Status == "completed" {
			content += "\n\n " + okStyle.Render("✓") + " " + m.summary()
		} else {
			content += "\n\n " + errorStyle.Render("✗") + " " + m.summary()
		}
		content += "\n\n" + descStyle.Render("press enter to return")
	}

	headerBox := baseStyle.
		Width(m.width - 4).
		Align(lipgloss.Center).
		Padding(1).
		Render(titleStyle.Render(stepTitle))

	mainContainer := baseStyle.
		Width(m.width - 4).
		Height(m.height - 12).
		Align(lipgloss.Center).
		Render(content)

	footerBox := footerStyle.
		Width(m.width - 4).
		Render(helpLine("esc", "back/cancel", "enter", "next"))

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		mainContainer,
		footerBox,
	)
}

func initiateMigration(client *sdk.Client, req sdk.InitiateMigrationRequest) tea.Cmd {
	return func() tea.Msg {
		m, err := client.InitiateMigration(req)
		if err != nil {
			return migrateErrMsg{err}
		}
		return migrationStartedMsg{id: m.ID}
	}
}

func pollMigration(client *sdk.Client, id string) tea.Cmd {
	return func() tea.Msg {
		m, err := client.GetMigration(id)
		if err != nil {
			return migrateErrMsg{err}
		}
		return migrationPolledMsg{m}
	}
}
