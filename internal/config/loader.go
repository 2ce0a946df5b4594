package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/spf13/viper"
)

// Where portalctl looks for its config, besides --config.
const (
	ConfigFileName   = ".portalctl.yaml"   // per-project, in the working directory
	GlobalConfigDir  = ".config/portalctl" // under $HOME
	GlobalConfigFile = "config.yaml"

	// EnvPrefix prefixes every environment override, e.g. PORTALCTL_PORTAL_URL.
	EnvPrefix = "PORTALCTL"
)

// Load reads the YAML file at path and layers .env and PORTALCTL_*
// overrides on top.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	err := v.ReadInConfig()
	switch {
	case err == nil:
		return parseConfig(v, path)
	case os.IsNotExist(err):
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Config file not found: "+path,
			"Run 'portalctl init' to create a config file, or specify one with --config")
	default:
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read "+path,
			"Make sure it is readable YAML")
	}
}

// Find resolves which config file applies. An explicit --config path must
// exist. Otherwise the first of ./.portalctl.yaml and
// ~/.config/portalctl/config.yaml that exists wins, and "" means neither
// does.
func Find(explicit string) (string, error) {
	if explicit != "" {
		path := ExpandPath(explicit)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return path, nil
		case os.IsNotExist(err):
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+path, "Check the --config path")
		default:
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Can't stat config file "+path, "Check its permissions")
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Can't resolve the working directory", "Run portalctl from a directory you can read")
	}
	for _, candidate := range []string{filepath.Join(cwd, ConfigFileName), GlobalConfigPath()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// GlobalConfigPath returns ~/.config/portalctl/config.yaml, or "" when the
// home directory cannot be determined.
func GlobalConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault is Load on whatever Find resolves. With no file at all it
// returns the defaults plus environment overrides.
func LoadOrDefault(explicit string) (*Config, error) {
	switch path, err := Find(explicit); {
	case err != nil:
		return nil, err
	case path != "":
		return Load(path)
	}
	return parseConfig(newViper(), "")
}

// newViper builds a viper instance with defaults and environment binding.
// A .env file in the working directory is loaded first; variables already
// set in the environment win.
func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// parseConfig decodes v over the defaults and normalizes URL and paths.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		if path == "" {
			path = "the environment overrides"
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Invalid config format",
			"Check the value types in "+path)
	}

	cfg.PortalURL = strings.TrimRight(strings.TrimSpace(cfg.PortalURL), "/")
	cfg.LogFile = ExpandPath(cfg.LogFile)
	cfg.KubeconfigDir = ExpandPath(cfg.KubeconfigDir)

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("portal_url", "")
	v.SetDefault("session_cookie", "")
	v.SetDefault("insecure_skip_verify", false)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("kubeconfig_dir", d.KubeconfigDir)
	v.SetDefault("stats.default_duration", d.Stats.DefaultDuration)
	v.SetDefault("ssh.dial_timeout", d.SSH.DialTimeout)
	v.SetDefault("ssh.retry_for", d.SSH.RetryFor)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("output.format", d.Output.Format)
}

// ExpandPath expands a leading ~ to the user's home directory.
// Paths that cannot be expanded are returned unchanged.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
