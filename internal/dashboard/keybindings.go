package dashboard

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// Focus is where key input goes.
type Focus int

const (
	FocusList Focus = iota
	FocusFilter
	FocusPanel
)

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyRefresh    = "r"
	KeyDismiss    = "x"
	KeyFilter     = "/"
	KeyUp         = "up"
	KeyUpK        = "k"
	KeyDown       = "down"
	KeyDownJ      = "j"
	KeyHome       = "home"
	KeyEnd        = "end"
	KeyOpen       = "enter"
	KeyBack       = "esc"
	KeyNextTab    = "tab"
	KeyPrevTab    = "shift+tab"
	KeyToggleHelp = "?"
	KeyPageUp     = "pgup"
	KeyPageDown   = "pgdown"

	KeyCopyID         = "c"
	KeyCopyPrometheus = "P"
	KeyCopyConsole    = "o"
	KeyKubeconfig     = "K"
	KeySSH            = "S"

	KeyPrevGroup    = "left"
	KeyPrevGroupH   = "h"
	KeyNextGroup    = "right"
	KeyNextGroupL   = "l"
	KeyWiden        = "+"
	KeyNarrow       = "-"
	KeyEarlier      = "["
	KeyLater        = "]"
	KeyGlobalNarrow = "{"
	KeyGlobalWiden  = "}"
	KeySyncAll      = "G"
	KeyEndNow       = "T"
	KeyEditEnd      = "e"

	KeySSHCopyCommand  = "c"
	KeySSHCopyPassword = "p"
)

// HandleKeyMsg processes keyboard input. Returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyQuitAlt {
		return true, m.quit()
	}

	// Text inputs swallow everything else.
	if m.focus == FocusFilter {
		return true, m.updateFilter(msg)
	}
	if m.focus == FocusPanel && m.activeTab == TabStatistics && m.stats.Editing() {
		return true, m.stats.UpdateInput(msg)
	}
	if m.ssh.open {
		return true, m.handleSSHKey(key)
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyBack {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit:
		return true, m.quit()
	case KeyRefresh:
		m.refresh()
		return true, nil
	case KeyDismiss:
		m.dismiss()
		return true, nil
	case KeyCopyID:
		if c, ok := m.target(); ok {
			return true, m.copyCmd("resource ID", c.ResourceID)
		}
		return true, nil
	case KeyCopyPrometheus:
		if c, ok := m.target(); ok {
			return true, m.copyCmd("Prometheus URL", m.portal.PrometheusURL(c))
		}
		return true, nil
	case KeyCopyConsole:
		if c, ok := m.target(); ok {
			return true, m.copyCmd("console URL", c.ConsoleLink)
		}
		return true, nil
	case KeyKubeconfig:
		if c, ok := m.target(); ok {
			return true, m.kubeconfigCmd(c)
		}
		return true, nil
	case KeySSH:
		if c, ok := m.target(); ok {
			m.ssh.openFor(c.ResourceID)
		}
		return true, nil
	}

	if m.focus == FocusPanel {
		return m.handlePanelKey(key)
	}
	return m.handleListKey(key)
}

func (m *Model) handleListKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeyFilter:
		m.focus = FocusFilter
		return true, m.filter.Focus()
	case KeyBack:
		if m.clusters.Filter() != "" {
			m.filter.SetValue("")
			m.clusters.SetFilter("")
		}
		return true, nil
	case KeyOpen:
		if c, ok := m.clusters.Current(); ok {
			m.selectCluster(c)
		}
		return true, nil
	}
	return handleListKey(m.clusters, key), nil
}

func (m *Model) handlePanelKey(key string) (bool, tea.Cmd) {
	if handled, cmd := m.currentTab().HandleKey(key); handled {
		return true, cmd
	}

	switch key {
	case KeyBack:
		m.closePanel()
		return true, nil
	case KeyNextTab:
		m.activeTab = AllTabs[(int(m.activeTab)+1)%len(AllTabs)]
		m.viewport.GotoTop()
		return true, nil
	case KeyPrevTab:
		m.activeTab = AllTabs[(int(m.activeTab)+len(AllTabs)-1)%len(AllTabs)]
		m.viewport.GotoTop()
		return true, nil
	case KeyPageUp:
		m.viewport.HalfPageUp()
		return true, nil
	case KeyPageDown:
		m.viewport.HalfPageDown()
		return true, nil
	}
	return false, nil
}

// updateFilter feeds a key to the filter input. Enter keeps the filter and
// returns to the list; Esc clears it.
func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyOpen:
		m.focus = FocusList
		m.filter.Blur()
		return nil
	case KeyBack:
		m.focus = FocusList
		m.filter.Blur()
		m.filter.SetValue("")
		m.clusters.SetFilter("")
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.clusters.SetFilter(m.filter.Value())
	return cmd
}

func (m *Model) handleSSHKey(key string) tea.Cmd {
	switch key {
	case KeyBack, KeyQuit:
		m.ssh.close()
		return nil
	case KeyPrevGroup, KeyPrevGroupH, KeyUp, KeyUpK:
		m.ssh.move(-1)
	case KeyNextGroup, KeyNextGroupL, KeyDown, KeyDownJ:
		m.ssh.move(1)
	case KeyOpen:
		return m.ssh.request(m.ready(), m.portal)
	case KeySSHCopyCommand:
		if cred, ok := m.ssh.credential(); ok {
			return m.copyCmd("SSH command", cred.Command)
		}
	case KeySSHCopyPassword:
		if cred, ok := m.ssh.credential(); ok {
			return m.copyCmd("SSH password", cred.Password)
		}
	default:
		if n, err := strconv.Atoi(key); err == nil {
			m.ssh.choose(n)
		}
	}
	return nil
}
