package doctor

import (
	"context"
	stderrors "errors"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/errors"
)

// ConfigFileCheck looks for a config file. Not finding one only warns,
// since PORTALCTL_* variables can carry the whole config.
type ConfigFileCheck struct {
	manual
	ConfigPath string
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	switch path, err := config.Find(c.ConfigPath); {
	case err != nil:
		return failed(c, errors.Summary(err), "Check the --config path and its permissions")
	case path == "":
		return warned(c, "No config file found, using defaults and environment",
			"Run 'portalctl init' to create "+config.GlobalConfigPath())
	default:
		return passed(c, "Config file: "+path)
	}
}

// ConfigSchemaCheck loads and validates the effective config. When it
// passes, Config is what the portal and local checks run against.
type ConfigSchemaCheck struct {
	manual
	ConfigPath string

	Config *config.Config
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return CategoryConfig }

func (c *ConfigSchemaCheck) Run(context.Context) CheckResult {
	c.Config = nil
	cfg, err := config.LoadOrDefault(c.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		return failed(c, errors.Summary(err), suggestionOf(err))
	}
	c.Config = cfg
	return passed(c, "Config valid, portal "+cfg.PortalURL)
}

// NewConfigChecks returns the file and schema checks, handing back the
// schema check so the caller can read the config it loaded.
func NewConfigChecks(configPath string) ([]Check, *ConfigSchemaCheck) {
	schema := &ConfigSchemaCheck{ConfigPath: configPath}
	return []Check{&ConfigFileCheck{ConfigPath: configPath}, schema}, schema
}

// suggestionOf pulls the fix-it hint out of a structured error.
func suggestionOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Suggestion
	}
	return ""
}
