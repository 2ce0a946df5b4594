package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/pkg/sshutil"
)

// KubeconfigDirCheck verifies kubeconfig_dir exists and is writable. A
// missing directory is fixable.
type KubeconfigDirCheck struct {
	Dir string
}

func (c *KubeconfigDirCheck) Name() string     { return "kubeconfig_dir" }
func (c *KubeconfigDirCheck) Category() string { return CategoryLocal }

func (c *KubeconfigDirCheck) Run(context.Context) CheckResult {
	if c.Dir == "" {
		return warned(c, "kubeconfig_dir isn't set", "Pass -o to 'portalctl kubeconfig', or set kubeconfig_dir")
	}
	dir := config.ExpandPath(c.Dir)

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		r := warned(c, fmt.Sprintf("Kubeconfig directory %s doesn't exist", dir), "Run with --fix to create it")
		r.Fixable = true
		return r
	case err != nil || !info.IsDir():
		return failed(c, fmt.Sprintf("Kubeconfig directory %s isn't usable", dir), "Point kubeconfig_dir at a directory")
	}

	// Create and remove a file rather than trusting mode bits.
	scratch, err := os.CreateTemp(dir, ".portalctl-doctor-*")
	if err != nil {
		return failed(c, fmt.Sprintf("Kubeconfig directory %s isn't writable", dir), "Check directory permissions")
	}
	scratch.Close()
	os.Remove(scratch.Name())
	return passed(c, "Kubeconfig directory: "+dir)
}

func (c *KubeconfigDirCheck) Fix() error {
	if c.Dir == "" {
		return nil
	}
	return os.MkdirAll(config.ExpandPath(c.Dir), 0o700)
}

// SSHConfigCheck parses ~/.ssh/config, which 'ssh --connect' consults
// for HostName and Port overrides.
type SSHConfigCheck struct {
	manual

	// Path defaults to ~/.ssh/config.
	Path string
}

func (c *SSHConfigCheck) Name() string     { return "ssh_config" }
func (c *SSHConfigCheck) Category() string { return CategoryLocal }

func (c *SSHConfigCheck) Run(context.Context) CheckResult {
	path := c.Path
	if path == "" {
		path = config.ExpandPath(filepath.Join("~", ".ssh", "config"))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return passed(c, "No SSH config, portal addresses are dialed as issued")
	}

	matchLine, err := sshutil.CheckConfig(path)
	switch {
	case err != nil:
		return failed(c, fmt.Sprintf("SSH config %s doesn't parse", path), err.Error())
	case matchLine > 0:
		return warned(c, fmt.Sprintf("SSH config %s has a Match block at line %d", path, matchLine),
			"Host entries after it are ignored; move portal hosts above it")
	}
	return passed(c, "SSH config: "+path)
}

// NewLocalChecks returns the checks for files on this machine.
func NewLocalChecks(kubeconfigDir string) []Check {
	return []Check{
		&KubeconfigDirCheck{Dir: kubeconfigDir},
		&SSHConfigCheck{},
	}
}
