package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/portalctl/internal/errors"
)

const (
	headerHeight = 3
	footerHeight = 2
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.ssh.open {
		return m.renderModal(m.ssh.View(m.spinner.View()))
	}
	return m.renderDashboard()
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
	}
	b.WriteString("\n")

	if m.panelOpen() {
		b.WriteString(m.renderPanel())
	} else {
		b.WriteString(m.renderClusterList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the portal identity from /api/info.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("ARO Portal")

	var parts []string
	if !m.ready() && !m.session.ShowError() {
		parts = append(parts, m.spinner.View()+" connecting")
	}
	if m.ready() {
		info := m.session.Data()
		if info.Location != "" {
			parts = append(parts, info.Location)
		}
		if info.Username != "" {
			parts = append(parts, info.Username)
		}
	}
	text := title
	if len(parts) > 0 {
		text += LabelStyle.Render(" | " + strings.Join(parts, " | "))
	}
	if m.ready() && m.session.Data().Elevated {
		text += " " + ElevatedStyle.Render("ELEVATED")
	}
	return HeaderStyle.Render(text)
}

// renderBanner shows at most one dismissible message: the deep-link miss,
// then the error of whatever is on screen.
func (m Model) renderBanner() string {
	switch {
	case m.notFound:
		return ErrorBannerStyle.Render("Resource Not Found: "+NotFoundMessage) + MutedStyle.Render("  x dismiss")
	case m.session.ShowError():
		return ErrorBannerStyle.Render(errors.Summary(m.session.Err()))
	case m.panelOpen() && m.currentTab().ShowError():
		return ErrorBannerStyle.Render(errors.Summary(m.currentTab().Err())) + MutedStyle.Render("  x dismiss · r retry")
	case !m.panelOpen() && m.clusterTracker.ShowError():
		return ErrorBannerStyle.Render(errors.Summary(m.clusterTracker.Err())) + MutedStyle.Render("  x dismiss · r retry")
	}
	return ""
}

func (m Model) renderClusterList() string {
	width := m.width
	if width <= 0 {
		width = 120
	}
	var b strings.Builder
	if m.focus == FocusFilter || m.clusters.Filter() != "" {
		b.WriteString(FilterStyle.Render(m.filter.View()))
		b.WriteString("\n")
	}
	b.WriteString(renderList(m.clusters, m.clusterTracker.State(), width))
	return b.String()
}

func (m Model) renderPanel() string {
	var tabs []string
	for _, id := range AllTabs {
		style := TabStyle
		if id == m.activeTab {
			style = TabActiveStyle
		}
		label := id.Title()
		if id == m.activeTab && m.currentTab().Loading() {
			label = m.spinner.View() + label
		}
		tabs = append(tabs, style.Render(label))
	}

	title := TitleStyle.Render(m.selected.Name) + " " + lipgloss.NewStyle().Foreground(StateColor(m.selected.ProvisioningState)).Render(m.selected.State())
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + m.viewport.View()
}

func (m Model) renderFooter() string {
	var hints []string
	switch {
	case m.focus == FocusFilter:
		hints = []string{"enter apply", "esc clear"}
	case m.panelOpen():
		hints = []string{"tab switch", "esc close", "r refresh", "K kubeconfig", "S ssh", "? help"}
		if m.activeTab == TabStatistics {
			hints = []string{"←→ group", "+/- window", "[/] move", "G sync", "e end time", "esc close"}
		}
	default:
		hints = []string{"enter open", "/ filter", "1-6 sort", "r refresh", "c copy ID", "? help", "q quit"}
	}
	footer := FooterStyle.Render(strings.Join(hints, " | "))
	if m.status != "" {
		style := LabelStyle
		if m.statusErr {
			style = lipgloss.NewStyle().Foreground(ColorCritical)
		}
		footer = style.Render(m.status) + "\n" + footer
	}
	return footer
}

func (m Model) renderModal(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, ModalStyle.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg))
}
