package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/portal"
)

// Session is the part of the portal client the session checks use.
type Session interface {
	Info(ctx context.Context) (portal.Info, error)
	LoginURL(redirect string) string
}

// SessionCheck calls /api/info with the configured cookie. On success Info
// holds the response for ElevatedCheck.
type SessionCheck struct {
	manual
	Portal Session

	Info *portal.Info
}

func (c *SessionCheck) Name() string     { return "portal_session" }
func (c *SessionCheck) Category() string { return CategoryPortal }

func (c *SessionCheck) Run(ctx context.Context) CheckResult {
	c.Info = nil
	info, err := c.Portal.Info(ctx)
	switch {
	case errors.IsAuth(err):
		return failed(c, "Portal session is not authenticated",
			fmt.Sprintf("Log in at %s\nthen update session_cookie or PORTALCTL_SESSION_COOKIE", c.Portal.LoginURL("")))
	case err != nil:
		return failed(c, "Portal unreachable: "+errors.Summary(err), suggestionOf(err))
	}
	c.Info = &info
	return passed(c, fmt.Sprintf("Signed in as %s (%s)", info.Username, info.Location))
}

// ElevatedCheck warns when the session lacks the elevated role that
// kubeconfig and ssh credentials require.
type ElevatedCheck struct {
	manual
	Session *SessionCheck
}

func (c *ElevatedCheck) Name() string     { return "portal_elevated" }
func (c *ElevatedCheck) Category() string { return CategoryPortal }

func (c *ElevatedCheck) Run(context.Context) CheckResult {
	switch {
	case c.Session == nil || c.Session.Info == nil:
		return warned(c, "Elevation unknown: no session", "")
	case !c.Session.Info.Elevated:
		return warned(c, "Session is not elevated", "kubeconfig and ssh will be refused; log in with an elevated account")
	}
	return passed(c, "Session is elevated")
}

// NewSessionChecks returns the portal checks, sharing one /api/info call.
func NewSessionChecks(p Session) []Check {
	session := &SessionCheck{Portal: p}
	return []Check{session, &ElevatedCheck{Session: session}}
}
