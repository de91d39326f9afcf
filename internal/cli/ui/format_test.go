package ui

import (
	"testing"
	"time"

	"shuttle/pkg/sdk"

	"github.com/stretchr/testify/assert"
)

func TestFormatEntry(t *testing.T) {
	comp := "coordinator"
	e := sdk.LogEntry{
		Level:     "NOTICE",
		Message:   "Migration initiated for process task-123",
		Component: &comp,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
	}
	assert.Equal(t, "03:04:05 NOTICE   [coordinator] Migration initiated for process task-123", FormatEntry(e))

	e.Component = nil
	assert.Equal(t, "03:04:05 NOTICE   Migration initiated for process task-123", FormatEntry(e))
}

func TestSince(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "5s ago", Since(now.Add(-5*time.Second), now))
	assert.Equal(t, "3m ago", Since(now.Add(-3*time.Minute), now))
	assert.Equal(t, "2h ago", Since(now.Add(-2*time.Hour), now))
	assert.Equal(t, "4d ago", Since(now.Add(-96*time.Hour), now))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "🟢", StatusIcon("online"))
	assert.Equal(t, "🟡", StatusIcon("in_progress"))
	assert.Equal(t, "🔴", StatusIcon("failed"))

	assert.Equal(t, "none", Deref(nil, "none"))
	s := "server-a"
	assert.Equal(t, "server-a", Deref(&s, "none"))

	assert.Equal(t, "Server-A", ServerLabel(&sdk.Server{Name: "Server-A"}, "-"))
	assert.Equal(t, "-", ServerLabel(nil, "-"))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
