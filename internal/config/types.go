package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete portalctl configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// PortalURL is the admin portal base URL, e.g. https://portal.example.com.
	PortalURL string `yaml:"portal_url" mapstructure:"portal_url"`

	// SessionCookie is the value of the portal "session" cookie copied from a
	// logged-in browser. Usually supplied through PORTALCTL_SESSION_COOKIE.
	SessionCookie string `yaml:"session_cookie,omitempty" mapstructure:"session_cookie"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty" mapstructure:"insecure_skip_verify"`

	// RequestTimeout bounds each portal request. Zero disables the timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// LogFile receives structured logs. Supports ~ expansion.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	// KubeconfigDir is where downloaded kubeconfigs are written.
	KubeconfigDir string `yaml:"kubeconfig_dir" mapstructure:"kubeconfig_dir"`

	Stats  StatsConfig  `yaml:"stats" mapstructure:"stats"`
	SSH    SSHConfig    `yaml:"ssh" mapstructure:"ssh"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// StatsConfig controls the statistics tab.
type StatsConfig struct {
	// DefaultDuration is the duration bucket every graph starts with.
	DefaultDuration string `yaml:"default_duration" mapstructure:"default_duration"`
}

// SSHConfig controls sessions opened from an issued SSH credential.
type SSHConfig struct {
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// RetryFor is how long to keep retrying the first dial. A freshly issued
	// credential can take a few seconds to reach the SSH proxy.
	RetryFor time.Duration `yaml:"retry_for" mapstructure:"retry_for"`
}

// OutputConfig controls CLI output formatting.
type OutputConfig struct {
	// Color: auto, always, never
	Color string `yaml:"color" mapstructure:"color"`

	// Format: table, json, yaml
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentConfigVersion,
		RequestTimeout: 60 * time.Second,
		LogFile:        "~/.local/state/portalctl/portalctl.log",
		KubeconfigDir:  "~/.kube/portalctl",
		Stats: StatsConfig{
			DefaultDuration: "1h",
		},
		SSH: SSHConfig{
			DialTimeout: 10 * time.Second,
			RetryFor:    30 * time.Second,
		},
		Output: OutputConfig{
			Color:  "auto",
			Format: "table",
		},
	}
}
