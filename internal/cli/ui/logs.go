package ui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"shuttle/pkg/sdk"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxLines bounds the viewer buffer; the coordinator keeps its own history.
const maxLines = 1000

type logModel struct {
	sub      chan sdk.LogEntry
	viewport viewport.Model
	lines    []string
	err      error
	ready    bool
	back     bool
	client   *sdk.Client
	width    int
	height   int
	message  string
}

type logMsg sdk.LogEntry
type streamClosedMsg struct{ err error }
type logsClearedMsg struct{}

func initialLogModel(sub chan sdk.LogEntry, client *sdk.Client) logModel {
	return logModel{sub: sub, client: client}
}

func (m logModel) Init() tea.Cmd {
	return waitForLog(m.sub)
}

func waitForLog(sub chan sdk.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-sub
		if !ok {
			return streamClosedMsg{}
		}
		return logMsg(entry)
	}
}

func clearLogs(client *sdk.Client) tea.Cmd {
	return func() tea.Msg {
		if err := client.ClearLogs(); err != nil {
			return streamClosedMsg{err: err}
		}
		return logsClearedMsg{}
	}
}

func (m *logModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m logModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.back = true
			return m, tea.Quit
		case "c":
			return m, clearLogs(m.client)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 8
		if !m.ready {
			m.viewport = viewport.New(msg.Width-6, msg.Height-headerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 6
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))

	case logMsg:
		entry := sdk.LogEntry(msg)
		if entry.Message == "System logs cleared" {
			m.lines = nil
		}
		m.appendLine(FormatEntry(entry))
		return m, waitForLog(m.sub)

	case logsClearedMsg:
		m.message = "Logs cleared"
		return m, nil

	case streamClosedMsg:
		m.err = msg.err
		if m.err == nil {
			m.message = "Log stream closed"
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m logModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := headerStyle.Width(m.width).Render("COORDINATOR LOGS")
	info := fmt.Sprintf("Coordinator: %s  •  %d lines", m.client.BaseURL(), len(m.lines))
	if m.err != nil {
		info += "  •  " + errorStyle.Render(m.err.Error())
	} else if m.message != "" {
		info += "  •  " + messageStyle.Render(m.message)
	}

	headerBox := baseStyle.
		Width(m.width - 4).
		Align(lipgloss.Center).
		Render(info)

	console := baseStyle.
		Width(m.width - 4).
		Render(m.viewport.View())

	footerBox := footerStyle.
		Width(m.width - 4).
		Render(helpLine("↑/↓", "scroll", "c", "clear", "esc", "back", "q", "quit"))

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		console,
		footerBox,
	)
}

// RunLogs follows the coordinator log stream and reports whether the user
// asked to go back to the dashboard.
func RunLogs(client *sdk.Client) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := make(chan sdk.LogEntry, 256)
	go func() {
		defer close(sub)
		err := client.FollowLogs(ctx, func(e sdk.LogEntry) {
			select {
			case sub <- e:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("log stream ended: %v", err)
		}
	}()

	p := tea.NewProgram(
		initialLogModel(sub, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	m, err := p.Run()
	if err != nil {
		log.Printf("Error running logs UI: %v", err)
		return true
	}
	if lm, ok := m.(logModel); ok {
		return lm.back
	}
	return false
}
