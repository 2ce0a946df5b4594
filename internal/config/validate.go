package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/window"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but portalctl only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade portalctl to read this config")
	}

	if err := validatePortalURL(cfg.PortalURL); err != nil {
		return err
	}

	if cfg.RequestTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"request_timeout can't be negative",
			"Use 0 to disable the timeout, or a duration like 30s")
	}

	if !window.IsBucket(cfg.Stats.DefaultDuration) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("stats.default_duration '%s' isn't a known duration", cfg.Stats.DefaultDuration),
			"Pick one of: "+strings.Join(window.BucketNames(), ", "))
	}

	if err := validateOutput(cfg.Output); err != nil {
		return err
	}

	if cfg.SSH.DialTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"ssh.dial_timeout must be positive",
			"Try something like 10s")
	}

	return nil
}

func validatePortalURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ErrConfig,
			"portal_url isn't set",
			"Run 'portalctl init' or export PORTALCTL_PORTAL_URL")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("portal_url '%s' isn't a valid URL", raw),
			"Use the full base URL, e.g. https://portal.example.com")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("portal_url scheme '%s' isn't supported", u.Scheme),
			"Use an https:// URL")
	}
	return nil
}

func validateOutput(out OutputConfig) error {
	switch out.Color {
	case "auto", "always", "never":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("output.color '%s' isn't valid", out.Color),
			"Use auto, always, or never")
	}

	switch out.Format {
	case "table", "json", "yaml":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("output.format '%s' isn't valid", out.Format),
			"Use table, json, or yaml")
	}
	return nil
}
