package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	outputJSON bool

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	tableHeader  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCell    = lipgloss.NewStyle().Padding(0, 1)
)

func init() {
	RootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print raw JSON instead of tables")
}

func printTable(w io.Writer, title string, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(w, sectionStyle.Render(title))
	fmt.Fprintln(w, t.Render())
}

// emit prints v as JSON when --json is set and reports whether it did.
func emit(w io.Writer, v any) (bool, error) {
	if !outputJSON {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
