package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "r", Desc: "Refresh the current view"},
	{Key: "x", Desc: "Dismiss the error banner"},
	{Key: "/", Desc: "Filter clusters by resource ID"},
	{Key: "1-9", Desc: "Sort by column (again to flip)"},
	{Key: "up / k", Desc: "Previous row"},
	{Key: "down / j", Desc: "Next row"},
	{Key: "Enter", Desc: "Open cluster / row details"},
	{Key: "Esc", Desc: "Back / close panel"},
	{Key: "Tab", Desc: "Next panel tab"},
	{Key: "c", Desc: "Copy resource ID"},
	{Key: "P", Desc: "Copy Prometheus URL"},
	{Key: "o", Desc: "Copy console URL"},
	{Key: "K", Desc: "Download kubeconfig"},
	{Key: "S", Desc: "Request SSH credentials"},
	{Key: "← / →", Desc: "Statistics group"},
	{Key: "+ / -", Desc: "Widen / narrow chart window"},
	{Key: "[ / ]", Desc: "Move chart window earlier / later"},
	{Key: "{ / }", Desc: "Narrow / widen global window"},
	{Key: "G", Desc: "Apply global window to all charts"},
	{Key: "T", Desc: "Global end time to now"},
	{Key: "e", Desc: "Edit global end time"},
	{Key: "?", Desc: "Toggle this help"},
}

var (
	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	lines := []string{helpTitleStyle.Render("Keyboard Shortcuts"), ""}
	for _, binding := range helpBindings {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}
	lines = append(lines, "", LabelStyle.Render("Press ? to close"))

	return m.renderModal(strings.Join(lines, "\n"))
}
