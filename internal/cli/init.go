package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	// Path is the file to write; empty means the global config path.
	Path string

	// PortalURL skips the prompts when set.
	PortalURL string
	Overwrite bool
}

// initCommand writes a new config file, asking for the portal URL and
// session cookie interactively unless PortalURL is given.
func initCommand(w io.Writer, opts InitOptions) error {
	path := opts.Path
	if path == "" {
		path = config.GlobalConfigPath()
	}
	path = config.ExpandPath(path)
	interactive := opts.PortalURL == ""

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if !interactive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.PortalURL = opts.PortalURL

	if interactive {
		duration := cfg.Stats.DefaultDuration
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Portal URL").
					Description("Base URL of the admin portal").
					Placeholder("https://portal.example.com").
					Value(&cfg.PortalURL).
					Validate(func(s string) error {
						c := config.DefaultConfig()
						c.PortalURL = strings.TrimRight(strings.TrimSpace(s), "/")
						return config.Validate(c)
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Session cookie (optional)").
					Description("Value of the portal's \"session\" cookie. Leave empty to use PORTALCTL_SESSION_COOKIE instead.").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.SessionCookie),
			),
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Default statistics window").
					Options(huh.NewOptions(initBuckets...)...).
					Value(&duration),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Pass --portal-url to skip the prompts")
		}
		cfg.Stats.DefaultDuration = duration
	}
	cfg.PortalURL = strings.TrimRight(strings.TrimSpace(cfg.PortalURL), "/")

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if cfg.SessionCookie != "" {
		checkSession(w, cfg)
	}

	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}

	fmt.Fprintf(w, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  portalctl info       - Check the session")
	fmt.Fprintln(w, "  portalctl clusters   - List clusters")
	fmt.Fprintln(w, "  portalctl dash       - Open the dashboard")
	return nil
}

// checkSession tries the cookie against /api/info. Failure only warns:
// the cookie may simply not be valid yet.
func checkSession(w io.Writer, cfg *config.Config) {
	client, err := portal.New(portal.Options{
		BaseURL:            cfg.PortalURL,
		SessionCookie:      cfg.SessionCookie,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Logger:             logger.Noop(),
	})
	if err != nil {
		ui.PrintWarning(errors.Summary(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	info, err := client.Info(ctx)
	if err != nil {
		ui.PrintWarning("Session check failed: " + errors.Summary(err))
		return
	}
	fmt.Fprintf(w, "%s Session belongs to %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), info.Username)
}

// initBuckets are the default windows offered by init; any bucket works
// through 'config set'.
var initBuckets = []string{"1h", "6h", "12h", "1d", "1w"}

// configSetCommand sets one key and rejects the change, restoring the old
// file, when the result doesn't validate.
func configSetCommand(w io.Writer, explicit, key, value string) error {
	path, err := config.Find(explicit)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'portalctl init' first")
	}

	before, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read "+path, "Check file permissions")
	}
	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't update "+path, "")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		if rerr := os.WriteFile(path, before, 0o600); rerr != nil {
			return errors.WrapWithCode(rerr, errors.ErrConfig, "Couldn't restore "+path, "")
		}
		return err
	}

	fmt.Fprintf(w, "%s %s = %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), key, value)
	return nil
}

// configShowCommand prints the effective config.
func configShowCommand(w io.Writer, explicit string) error {
	cfg, err := config.LoadOrDefault(explicit)
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	pairs := configPairs(cfg)
	data := make(map[string]string, len(pairs))
	for _, p := range pairs {
		data[p.Key] = p.Value
	}
	return render(w, format, data, func() string {
		return ui.RenderKeyValues(pairs, "-")
	})
}

// configPairs flattens cfg to dotted keys, masking the session cookie.
func configPairs(cfg *config.Config) []ui.KeyValue {
	cookie := ""
	if cfg.SessionCookie != "" {
		cookie = "********"
	}
	return []ui.KeyValue{
		{Key: "portal_url", Value: cfg.PortalURL},
		{Key: "session_cookie", Value: cookie},
		{Key: "insecure_skip_verify", Value: fmt.Sprint(cfg.InsecureSkipVerify)},
		{Key: "request_timeout", Value: cfg.RequestTimeout.String()},
		{Key: "log_file", Value: cfg.LogFile},
		{Key: "kubeconfig_dir", Value: cfg.KubeconfigDir},
		{Key: "stats.default_duration", Value: cfg.Stats.DefaultDuration},
		{Key: "ssh.dial_timeout", Value: cfg.SSH.DialTimeout.String()},
		{Key: "ssh.retry_for", Value: cfg.SSH.RetryFor.String()},
		{Key: "output.color", Value: cfg.Output.Color},
		{Key: "output.format", Value: cfg.Output.Format},
	}
}
