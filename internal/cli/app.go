package cli

import (
	"context"
	"io"
	"os"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
	"golang.org/x/term"
)

// app is what every portal command needs: validated config, a portal
// client and a logger. Build it with loadApp and Close it when done.
type app struct {
	cfg    *config.Config
	client *portal.Client
	log    logger.Logger
	format string

	// progress receives spinners; nil keeps them silent.
	progress io.Writer
	closeLog func() error
}

// loadApp loads and validates config, opens the log file and builds the
// portal client.
func loadApp() (*app, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if !noColor && !machineMode {
		ui.ApplyColorMode(cfg.Output.Color)
	}

	log, closeLog, err := logger.NewFile(cfg.LogFile, "portalctl")
	if err != nil {
		ui.PrintWarning("Logging disabled: " + err.Error())
		log, closeLog = logger.Noop(), func() error { return nil }
	}
	logger.SetDefault(log)

	a, err := newApp(cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	a.closeLog = closeLog
	if a.format == formatTable && term.IsTerminal(int(os.Stderr.Fd())) {
		a.progress = os.Stderr
	}
	return a, nil
}

// newApp builds an app from an already validated config.
func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	format, err := resolveFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	client, err := portal.New(portal.Options{
		BaseURL:            cfg.PortalURL,
		SessionCookie:      cfg.SessionCookie,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.RequestTimeout,
		Logger:             log,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		client:   client,
		log:      log,
		format:   format,
		closeLog: func() error { return nil },
	}, nil
}

// Close flushes the log file.
func (a *app) Close() {
	_ = a.closeLog()
}

func (a *app) spinner(label string) *ui.Spinner {
	return ui.NewSpinner(label, a.progress)
}

// bootstrap loads /api/info. Every command waits on it, as the dashboard
// does, so an expired session fails fast with the login URL.
func (a *app) bootstrap(ctx context.Context) (portal.Info, error) {
	sp := a.spinner("Connecting to " + a.cfg.PortalURL)
	sp.Start()
	info, err := a.client.Info(ctx)
	return info, sp.Finish(a.check(err, ""))
}

// check turns an authentication failure into the login instruction.
// redirect, when set, is passed back to the portal after login.
func (a *app) check(err error, redirect string) error {
	if err != nil && errors.IsAuth(err) {
		return loginRequired(a.client.LoginURL(redirect))
	}
	return err
}

// loginRequired is the AUTH error the CLI exits with.
func loginRequired(loginURL string) error {
	return errors.New(errors.ErrAuth,
		"Portal session is not authenticated",
		"Log in at "+loginURL+" then update session_cookie or PORTALCTL_SESSION_COOKIE")
}

// resolve finds a cluster by resource ID or unique name.
func (a *app) resolve(ctx context.Context, ref string) (portal.Cluster, error) {
	sp := a.spinner("Looking up " + ref)
	sp.Start()
	clusters, err := a.client.Clusters(ctx)
	if err != nil {
		return portal.Cluster{}, sp.Finish(a.check(err, ""))
	}
	c, err := portal.FindCluster(clusters, ref)
	return c, sp.Finish(err)
}
