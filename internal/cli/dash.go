package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/portalctl/internal/dashboard"
	"github.com/rileyhilliard/portalctl/internal/errors"
)

// dashCommand runs the dashboard until the user quits. A session that
// turns out to be unauthenticated ends the program with the login URL.
func dashCommand(a *app, resourceID string) error {
	model := dashboard.New(dashboard.Options{
		Portal:          a.client,
		ResourceID:      resourceID,
		RequestTimeout:  a.cfg.RequestTimeout,
		DefaultDuration: a.cfg.Stats.DefaultDuration,
		KubeconfigDir:   a.cfg.KubeconfigDir,
		Logger:          a.log,
	})

	a.log.Info("dashboard starting against %s", a.cfg.PortalURL)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return errors.Wrap(err, "Dashboard crashed")
	}

	if m, ok := final.(dashboard.Model); ok && m.LoginURL() != "" {
		a.log.Warn("dashboard stopped: session not authenticated")
		return loginRequired(m.LoginURL())
	}
	return nil
}
