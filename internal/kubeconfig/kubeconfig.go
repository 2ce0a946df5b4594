// Package kubeconfig validates, stores and merges kubeconfigs downloaded
// from the portal.
package kubeconfig

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Summary describes a kubeconfig without its credentials.
type Summary struct {
	CurrentContext string   `json:"currentContext" yaml:"currentContext"`
	Server         string   `json:"server" yaml:"server"`
	User           string   `json:"user" yaml:"user"`
	Contexts       []string `json:"contexts" yaml:"contexts"`
}

// Parse loads and validates a kubeconfig.
func Parse(data []byte) (*clientcmdapi.Config, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrKubeconfig,
			"Downloaded kubeconfig doesn't parse",
			"Request a new one; the portal may have returned an error page")
	}
	if err := clientcmd.Validate(*cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrKubeconfig,
			"Downloaded kubeconfig is invalid", "")
	}
	return cfg, nil
}

// Summarize reports the current context, its server and user, and every
// context name.
func Summarize(cfg *clientcmdapi.Config) Summary {
	s := Summary{CurrentContext: cfg.CurrentContext}
	if ctx, ok := cfg.Contexts[cfg.CurrentContext]; ok {
		s.User = ctx.AuthInfo
		if cl, ok := cfg.Clusters[ctx.Cluster]; ok {
			s.Server = cl.Server
		}
	}
	for name := range cfg.Contexts {
		s.Contexts = append(s.Contexts, name)
	}
	sort.Strings(s.Contexts)
	return s
}

// Save writes data to dir/filename with owner-only permissions and returns
// the path.
func Save(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrKubeconfig,
			"Couldn't create "+dir, "Set kubeconfig_dir to a writable directory")
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrKubeconfig, "Couldn't write "+path, "")
	}
	return path, nil
}

// Merge adds the clusters, users and contexts of cfg to the kubeconfig at
// target, overwriting entries with the same name, and switches the current
// context. A missing target is created.
func Merge(target string, cfg *clientcmdapi.Config) error {
	existing := clientcmdapi.NewConfig()
	if _, err := os.Stat(target); err == nil {
		existing, err = clientcmd.LoadFromFile(target)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrKubeconfig,
				"Couldn't read "+target, "Fix or move the file, then retry")
		}
	}

	for name, c := range cfg.Clusters {
		existing.Clusters[name] = c
	}
	for name, a := range cfg.AuthInfos {
		existing.AuthInfos[name] = a
	}
	for name, c := range cfg.Contexts {
		existing.Contexts[name] = c
	}
	if cfg.CurrentContext != "" {
		existing.CurrentContext = cfg.CurrentContext
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return errors.WrapWithCode(err, errors.ErrKubeconfig, "Couldn't create "+filepath.Dir(target), "")
	}
	if err := clientcmd.WriteToFile(*existing, target); err != nil {
		return errors.WrapWithCode(err, errors.ErrKubeconfig, "Couldn't write "+target, "")
	}
	return nil
}
