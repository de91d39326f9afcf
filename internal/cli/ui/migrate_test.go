package ui

import (
	"testing"

	"shuttle/pkg/sdk"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleet() []sdk.Server {
	return []sdk.Server{
		{ID: "server-a", Name: "Server-A", Status: "online"},
		{ID: "server-b", Name: "Server-B", Status: "offline"},
		{ID: "server-c", Name: "Server-C", Status: "online"},
	}
}

func process() sdk.ProcessWithServer {
	id := "server-a"
	return sdk.ProcessWithServer{
		Process: sdk.Process{ID: "task-123", Type: "Compute Task", Status: "running", ServerID: &id},
		Server:  &sdk.Server{ID: "server-a", Name: "Server-A"},
	}
}

func TestMigrationTargets(t *testing.T) {
	targets := MigrationTargets(process(), fleet())
	require.Len(t, targets, 1)
	assert.Equal(t, "server-c", targets[0].ID)
}

func TestMigrateModel_SelectAndCancel(t *testing.T) {
	m := NewMigrateModel(sdk.NewClient("http://localhost:0"), process(), fleet(), 100, 40)
	assert.Equal(t, StepTarget, m.step)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.target)
	assert.Equal(t, "server-c", m.target.ID)
	assert.Equal(t, StepConfirm, m.step)
	assert.Contains(t, m.View(), "Server-C")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StepTarget, m.step)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, MigrateCancelMsg{}, cmd())
}

func TestMigrateModel_FollowsToResult(t *testing.T) {
	m := NewMigrateModel(sdk.NewClient("http://localhost:0"), process(), fleet(), 100, 40)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.step = StepRunning

	msg := "transfer failed: connection refused"
	m, _ = m.Update(migrationPolledMsg{&sdk.MigrationWithDetails{
		Migration: sdk.Migration{ID: "m-1", Status: "failed", ErrorMessage: &msg},
	}})
	assert.Equal(t, StepResult, m.step)
	assert.Equal(t, "Migration of task-123 failed: transfer failed: connection refused", m.summary())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	done, ok := cmd().(MigrateDoneMsg)
	require.True(t, ok)
	assert.Contains(t, done.Summary, "failed")
}
