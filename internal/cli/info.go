package cli

import (
	"context"
	"io"

	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
)

// infoResult is /api/info without the CSRF token.
type infoResult struct {
	Portal   string `json:"portal"`
	Location string `json:"location"`
	Username string `json:"username"`
	Elevated bool   `json:"elevated"`
}

func newInfoResult(base string, info portal.Info) infoResult {
	return infoResult{Portal: base, Location: info.Location, Username: info.Username, Elevated: info.Elevated}
}

func infoCommand(ctx context.Context, a *app, w io.Writer) error {
	info, err := a.bootstrap(ctx)
	if err != nil {
		return err
	}
	result := newInfoResult(a.client.BaseURL(), info)
	return render(w, a.format, result, func() string {
		elevated := "no"
		if result.Elevated {
			elevated = ui.WarningStyle().Render("yes")
		}
		return ui.RenderKeyValues([]ui.KeyValue{
			{Key: "Portal", Value: result.Portal},
			{Key: "Location", Value: result.Location},
			{Key: "User", Value: result.Username},
			{Key: "Elevated", Value: elevated},
		}, "-")
	})
}

// logoutCommand ends the session. The CSRF token from /api/info is
// required for the POST.
func logoutCommand(ctx context.Context, a *app, w io.Writer) error {
	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}
	if err := a.client.Logout(ctx); err != nil {
		return a.check(err, "")
	}
	a.log.Info("logged out of %s", a.client.BaseURL())

	return render(w, a.format, map[string]bool{"loggedOut": true}, func() string {
		return ui.SuccessStyle().Render(ui.SymbolSuccess) + " Logged out of " + a.client.BaseURL() + "\n" +
			ui.MutedStyle().Render("Clear session_cookie before logging in again.") + "\n"
	})
}
