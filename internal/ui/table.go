package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// RenderTable lays rows out under titles as a static bubbles table. Each
// column is as wide as its widest cell, capped at maxWidth when positive;
// longer cells are truncated by the table. No rows renders nothing.
func RenderTable(titles []string, rows [][]string, maxWidth int) string {
	if len(rows) == 0 {
		return ""
	}
	body := make([]table.Row, len(rows))
	for i, r := range rows {
		body[i] = r
	}
	t := table.New(
		table.WithColumns(fitColumns(titles, rows, maxWidth)),
		table.WithRows(body),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)
	t.SetStyles(staticTableStyles())
	return t.View()
}

// staticTableStyles underlines the header and turns off the cursor row
// highlight, which means nothing outside the dashboard.
func staticTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	s.Selected = lipgloss.NewStyle()
	return s
}

func fitColumns(titles []string, rows [][]string, maxWidth int) []table.Column {
	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		w := lipgloss.Width(title)
		for _, r := range rows {
			if i < len(r) {
				w = max(w, lipgloss.Width(r[i]))
			}
		}
		if maxWidth > 0 {
			w = min(w, maxWidth)
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

// KeyValue is one line of RenderKeyValues.
type KeyValue struct {
	Key   string
	Value string
}

// RenderKeyValues aligns values in a column after their keys. Blank
// values show placeholder, muted.
func RenderKeyValues(pairs []KeyValue, placeholder string) string {
	keyWidth := 0
	for _, p := range pairs {
		keyWidth = max(keyWidth, lipgloss.Width(p.Key))
	}

	var b strings.Builder
	for _, p := range pairs {
		v := p.Value
		if strings.TrimSpace(v) == "" {
			v = MutedStyle().Render(placeholder)
		}
		b.WriteString(LabelStyle().Render(padRight(p.Key, keyWidth)) + "  " + v + "\n")
	}
	return b.String()
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}
