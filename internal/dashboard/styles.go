package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Azure blue carries focus and headings; state colors follow the
// portal's provisioning states.
const (
	ColorDarkBg    = lipgloss.Color("#0B1220")
	ColorSurfaceBg = lipgloss.Color("#141D2E")
	ColorBorder    = lipgloss.Color("#2B3A55")

	ColorHealthy  = lipgloss.Color("#57D9A3")
	ColorWarning  = lipgloss.Color("#F2B94B")
	ColorCritical = lipgloss.Color("#F4516C")

	ColorTextPrimary   = lipgloss.Color("#F5F7FA")
	ColorTextSecondary = lipgloss.Color("#A9B6CC")
	ColorTextMuted     = lipgloss.Color("#66748C")

	ColorAccent    = lipgloss.Color("#2F8FFF")
	ColorAccentDim = lipgloss.Color("#8A7CFF")

	ColorGraph = lipgloss.Color("#4FD1E8")
)

// SeriesPalette colors chart series by position. Series past the end are
// muted; no color appears twice.
var SeriesPalette = []lipgloss.Color{
	ColorGraph,
	ColorAccent,
	ColorHealthy,
	ColorWarning,
	ColorAccentDim,
	lipgloss.Color("#E27AD6"),
	lipgloss.Color("#C6E36B"),
	ColorCritical,
}

// SeriesColor returns the palette color for series i.
func SeriesColor(i int) lipgloss.Color {
	if i < 0 || i >= len(SeriesPalette) {
		return ColorTextMuted
	}
	return SeriesPalette[i]
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

// banner is a full-width strip of text on a colored background.
func banner(text, bg lipgloss.Color) lipgloss.Style {
	return fg(text).Background(bg).Padding(0, 1)
}

var (
	TitleStyle   = fg(ColorAccent).Bold(true)
	LabelStyle   = fg(ColorTextSecondary)
	ValueStyle   = fg(ColorTextPrimary)
	MutedStyle   = fg(ColorTextMuted)
	ShimmerStyle = fg(ColorBorder)
	borderStyle  = fg(ColorBorder)

	HeaderStyle = banner(ColorTextPrimary, ColorSurfaceBg).Bold(true)
	FooterStyle = MutedStyle.Padding(0, 1)

	TableHeaderStyle = TitleStyle
	SelectedRowStyle = fg(ColorTextPrimary).Background(ColorBorder).Bold(true)

	TabStyle       = MutedStyle.Padding(0, 1)
	TabActiveStyle = banner(ColorTextPrimary, ColorAccent).Bold(true)

	ErrorBannerStyle = banner(ColorTextPrimary, ColorCritical)
	InfoBannerStyle  = banner(ColorDarkBg, ColorGraph)
	ElevatedStyle    = banner(ColorDarkBg, ColorWarning).Bold(true)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	FilterStyle = ValueStyle.
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorBorder)
)

// StateColor colors a provisioning state: Succeeded green, Failed red,
// anything in progress amber.
func StateColor(state string) lipgloss.Color {
	switch {
	case state == "":
		return ColorTextMuted
	case strings.HasPrefix(state, "Succeeded"):
		return ColorHealthy
	case strings.HasPrefix(state, "Failed"):
		return ColorCritical
	}
	return ColorWarning
}

// Section boxes frame each panel block:
//
//	╭─ Title ─────────────── value ╮
//	│ content                      │
//	╰──────────────────────────────╯

// SectionHeader draws the top edge with title left and value right.
func SectionHeader(title, value string, width int) string {
	width = max(width, 10)
	// Fixed cells: "╭─ " plus the spaces around the rule plus " ╮".
	used := 3 + lipgloss.Width(title) + 2 + lipgloss.Width(value) + 2
	rule := strings.Repeat("─", max(width-used, 1))
	return borderStyle.Render("╭─ ") +
		TitleStyle.Render(title) +
		borderStyle.Render(" "+rule+" ") +
		fg(ColorGraph).Bold(true).Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter draws the bottom edge.
func SectionFooter(width int) string {
	return borderStyle.Render("╰" + strings.Repeat("─", max(width, 2)-2) + "╯")
}

// SectionContentLine pads content between the side borders.
func SectionContentLine(content string, width int) string {
	pad := max(max(width, 4)-4-lipgloss.Width(content), 0)
	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", pad) + " " + borderStyle.Render("│")
}
