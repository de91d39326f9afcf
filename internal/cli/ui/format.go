package ui

import (
	"fmt"
	"strings"
	"time"

	"shuttle/pkg/sdk"
)

func StatusIcon(status string) string {
	switch status {
	case "online", "running", "completed":
		return "🟢"
	case "migrating", "in_progress", "pending":
		return "🟡"
	case "paused":
		return "🟠"
	case "stopped":
		return "⚪"
	default:
		return "🔴"
	}
}

// FormatEntry renders one log line as "15:04:05 LEVEL [component] message".
func FormatEntry(e sdk.LogEntry) string {
	ts := e.Timestamp.Local().Format("15:04:05")
	level := fmt.Sprintf("%-8s", e.Level)
	if style, ok := levelStyles[e.Level]; ok {
		level = style.Render(level)
	}
	if e.Component != nil && *e.Component != "" {
		return fmt.Sprintf("%s %s [%s] %s", ts, level, *e.Component, e.Message)
	}
	return fmt.Sprintf("%s %s %s", ts, level, e.Message)
}

func ServerLabel(s *sdk.Server, fallback string) string {
	if s == nil {
		return fallback
	}
	return s.Name
}

func Deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// Since renders how long ago t was, coarsely.
func Since(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return strings.TrimSpace(s[:n-1]) + "…"
}
