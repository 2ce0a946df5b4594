package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kevinburke/ssh_config"
	"github.com/mitchellh/go-homedir"
	"github.com/rileyhilliard/portalctl/internal/logger"
)

// matchWarningOnce ensures the SSH config Match directive warning is only shown once per process.
var matchWarningOnce sync.Once

// resolveAddress returns the address to dial for login, honoring HostName
// and Port from the user's ssh_config. Anything unreadable falls back to the
// login's own host and port.
func resolveAddress(configPath string, login *Login) string {
	host, port := login.Host, login.Port
	if port == "" {
		port = "22"
	}

	if configPath == "" {
		home, err := homedir.Dir()
		if err != nil {
			return net.JoinHostPort(host, port)
		}
		configPath = filepath.Join(home, ".ssh", "config")
	}

	// kevinburke/ssh_config can't parse Match, so only the part before the
	// first Match block is read.
	content, matchLine, err := preprocessSSHConfig(configPath)
	if err != nil {
		return net.JoinHostPort(host, port)
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return net.JoinHostPort(host, port)
	}

	found := false
	if hostname, _ := cfg.Get(login.Host, "HostName"); hostname != "" {
		host = hostname
		found = true
	}
	// The dev portal's -p wins over config.
	if p, _ := cfg.Get(login.Host, "Port"); p != "" && login.Port == "22" {
		port = p
		found = true
	}

	if matchLine > 0 && !found {
		matchWarningOnce.Do(func() {
			logger.Default().Warn(
				"host '%s' not found in %s (a Match block at line %d may hide later entries)",
				login.Host, configPath, matchLine)
		})
	}

	return net.JoinHostPort(host, port)
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive.
// Also returns the line number where Match was found (0 if not found).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}

// CheckConfig parses the ssh_config at path the way Dial reads it. It
// returns the line of the first Match block, 0 if there is none.
func CheckConfig(path string) (int, error) {
	content, matchLine, err := preprocessSSHConfig(path)
	if err != nil {
		return 0, err
	}
	if _, err := ssh_config.Decode(bytes.NewReader(content)); err != nil {
		return matchLine, err
	}
	return matchLine, nil
}
