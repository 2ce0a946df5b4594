package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/kubeconfig"
	"github.com/rileyhilliard/portalctl/internal/ui"
)

type kubeconfigOptions struct {
	Ref    string
	Output string
	Merge  bool
}

// kubeconfigResult reports where a downloaded kubeconfig went.
type kubeconfigResult struct {
	Path    string             `json:"path"`
	Merged  bool               `json:"merged"`
	Summary kubeconfig.Summary `json:"summary"`
}

func kubeconfigCommand(ctx context.Context, a *app, w io.Writer, opts kubeconfigOptions) error {
	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}
	cluster, err := a.resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}

	sp := a.spinner("Requesting kubeconfig for " + cluster.Name)
	sp.Start()
	kc, err := a.client.Kubeconfig(ctx, cluster.ResourceID)
	if err := sp.Finish(a.check(err, cluster.ResourceID)); err != nil {
		return err
	}

	cfg, err := kubeconfig.Parse(kc.Data)
	if err != nil {
		return err
	}

	result := kubeconfigResult{Summary: kubeconfig.Summarize(cfg)}
	switch {
	case opts.Merge:
		target := opts.Output
		if target == "" {
			target = "~/.kube/config"
		}
		result.Path = config.ExpandPath(target)
		result.Merged = true
		if err := kubeconfig.Merge(result.Path, cfg); err != nil {
			return err
		}
	case opts.Output != "":
		path := config.ExpandPath(opts.Output)
		saved, err := kubeconfig.Save(filepath.Dir(path), filepath.Base(path), kc.Data)
		if err != nil {
			return err
		}
		result.Path = saved
	default:
		if a.cfg.KubeconfigDir == "" {
			return errors.New(errors.ErrConfig,
				"kubeconfig_dir isn't set",
				"Pass -o, or set kubeconfig_dir in the config")
		}
		saved, err := kubeconfig.Save(a.cfg.KubeconfigDir, kc.Filename, kc.Data)
		if err != nil {
			return err
		}
		result.Path = saved
	}
	a.log.Info("kubeconfig for %s written to %s (merged=%t)", cluster.ResourceID, result.Path, result.Merged)

	return render(w, a.format, result, func() string {
		verb := "Saved"
		if result.Merged {
			verb = "Merged into"
		}
		return fmt.Sprintf("%s %s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), verb, result.Path) +
			ui.RenderKeyValues([]ui.KeyValue{
				{Key: "Context", Value: result.Summary.CurrentContext},
				{Key: "Server", Value: result.Summary.Server},
				{Key: "User", Value: result.Summary.User},
			}, "-") +
			ui.MutedStyle().Render(fmt.Sprintf("export KUBECONFIG=%s", result.Path)) + "\n"
	})
}
