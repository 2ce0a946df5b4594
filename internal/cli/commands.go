package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	dashResourceID   string
	clustersFilter   string
	clustersSort     string
	clustersDesc     bool
	statsDuration    string
	statsEnd         string
	statsWidth       int
	kubeconfigOutput string
	kubeconfigMerge  bool
	sshMaster        int
	sshConnect       bool
	sshExec          string
	initForce        bool
	initPortalURL    string
	doctorFix        bool
)

// dashCmd starts the interactive dashboard
var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the interactive dashboard",
	Long: `Open the full-screen dashboard: the cluster list, per-cluster tabs
(overview, nodes, machines, machine sets, cluster operators, networking,
statistics) and the SSH, kubeconfig and copy actions.

Press ? inside the dashboard for key bindings.

Examples:
  portalctl dash
  portalctl dash --resource-id /subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.RedHatOpenShift/openShiftClusters/<name>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return dashCommand(a, dashResourceID)
		})
	},
}

// clustersCmd lists clusters
var clustersCmd = &cobra.Command{
	Use:     "clusters",
	Aliases: []string{"ls"},
	Short:   "List clusters",
	Long: `List every cluster visible to the portal session.

--filter matches resource IDs, case-insensitively. --sort takes a column
title (name, version, state, subscription, resource-group, created) or its
1-based position.

Examples:
  portalctl clusters
  portalctl clusters --filter westus --sort version --desc
  portalctl clusters --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return clustersCommand(cmd.Context(), a, os.Stdout, clustersOptions{
				Filter: clustersFilter,
				Sort:   clustersSort,
				Desc:   clustersDesc,
			})
		})
	},
}

// describeCmd shows everything the dashboard tabs show, at once
var describeCmd = &cobra.Command{
	Use:   "describe <resource-id|name>",
	Short: "Show a cluster's details and sub-resources",
	Long: `Fetch a cluster's overview, nodes, machines, machine sets, cluster
operators and networking concurrently and print them.

Examples:
  portalctl describe my-cluster
  portalctl describe /subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.RedHatOpenShift/openShiftClusters/<name> --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return describeCommand(cmd.Context(), a, os.Stdout, args[0])
		})
	},
}

// statsCmd fetches one metric
var statsCmd = &cobra.Command{
	Use:   "stats <resource-id|name> <metric>",
	Short: "Fetch a Prometheus-backed metric",
	Long: `Fetch one metric over a time window and chart it.

--duration takes one of the dashboard buckets (1m ... 8w). --end takes
"YYYY-MM-DD HH:MM" in local time and defaults to now.

Examples:
  portalctl stats my-cluster kubeapicpu
  portalctl stats my-cluster dnserrorrate --duration 1d --end "2024-05-01 12:00"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return statsCommand(cmd.Context(), a, os.Stdout, statsOptions{
				Ref:      args[0],
				Metric:   args[1],
				Duration: statsDuration,
				End:      statsEnd,
				Width:    statsWidth,
			})
		})
	},
}

// kubeconfigCmd downloads a kubeconfig
var kubeconfigCmd = &cobra.Command{
	Use:   "kubeconfig <resource-id|name>",
	Short: "Download a fresh kubeconfig",
	Long: `Request a new kubeconfig for the cluster, validate it and save it.

Without flags the file lands in kubeconfig_dir under the name the portal
gives it. -o writes to an explicit path; --merge folds it into an existing
kubeconfig (e.g. ~/.kube/config) and switches the current context.

Examples:
  portalctl kubeconfig my-cluster
  portalctl kubeconfig my-cluster -o ./admin.kubeconfig
  portalctl kubeconfig my-cluster --merge ~/.kube/config`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return kubeconfigCommand(cmd.Context(), a, os.Stdout, kubeconfigOptions{
				Ref:    args[0],
				Output: kubeconfigOutput,
				Merge:  kubeconfigMerge,
			})
		})
	},
}

// sshCmd requests an SSH credential for a master node
var sshCmd = &cobra.Command{
	Use:   "ssh <resource-id|name>",
	Short: "Get an SSH login for a master node",
	Long: `Request a short-lived SSH credential for master-0, master-1 or master-2.

By default the login command and password are printed. --connect opens a
shell through the portal's SSH proxy instead; --exec runs one command and
exits with its status. Without --master you are asked which node to use.

Examples:
  portalctl ssh my-cluster --master 0
  portalctl ssh my-cluster --connect
  portalctl ssh my-cluster --master 1 --exec "journalctl -u kubelet -n 50"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		master := -1
		if cmd.Flags().Changed("master") {
			master = sshMaster
		}
		return withApp(func(a *app) error {
			return sshCommand(cmd.Context(), a, os.Stdout, sshOptions{
				Ref:     args[0],
				Master:  master,
				Connect: sshConnect,
				Exec:    sshExec,
			})
		})
	},
}

// infoCmd shows the session
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the portal session",
	Long: `Show who the portal session belongs to, the portal's location and
whether the session is elevated.

Examples:
  portalctl info
  portalctl info --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return infoCommand(cmd.Context(), a, os.Stdout)
		})
	},
}

// logoutCmd ends the session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the portal session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return logoutCommand(cmd.Context(), a, os.Stdout)
		})
	},
}

// initCmd writes a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a portalctl config file",
	Long: `Create ~/.config/portalctl/config.yaml (or the --config path).

Prompts for the portal URL and session cookie unless --portal-url is given.

Examples:
  portalctl init
  portalctl init --portal-url https://portal.example.com --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(os.Stdout, InitOptions{
			Path:      cfgFile,
			PortalURL: initPortalURL,
			Overwrite: initForce,
		})
	},
}

// configCmd groups config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the config file",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set one dotted key in the config file, keeping comments and layout.

Examples:
  portalctl config set stats.default_duration 6h
  portalctl config set request_timeout 30s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(os.Stdout, cfgFile, args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Long:  `Print the config after defaults and PORTALCTL_* overrides. The session cookie is masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(os.Stdout, cfgFile)
	},
}

// completionScripts maps each supported shell to its cobra generator.
var completionScripts = map[string]func(io.Writer) error{
	"bash":       rootCmd.GenBashCompletion,
	"zsh":        rootCmd.GenZshCompletion,
	"fish":       func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
	"powershell": rootCmd.GenPowerShellCompletion,
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Print a completion script for your shell.

  portalctl completion bash > /etc/bash_completion.d/portalctl
  portalctl completion zsh > "${fpath[1]}/_portalctl"
  portalctl completion fish > ~/.config/fish/completions/portalctl.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionScripts[args[0]](cmd.OutOrStdout())
	},
}

// doctorCmd diagnoses config, session and local setup
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and portal access",
	Long: `Check that the config loads and validates, the session cookie is
accepted and elevated, kubeconfig_dir is writable and ~/.ssh/config parses.

Exits non-zero when any check fails.

Examples:
  portalctl doctor
  portalctl doctor --fix
  portalctl doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), os.Stdout, doctorOptions{ConfigPath: cfgFile, Fix: doctorFix})
	},
}

// withApp loads the app, runs fn and closes the app.
func withApp(fn func(a *app) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func init() {
	dashCmd.Flags().StringVar(&dashResourceID, "resource-id", "", "preselect this cluster")

	clustersCmd.Flags().StringVar(&clustersFilter, "filter", "", "only clusters whose resource ID contains this text")
	clustersCmd.Flags().StringVar(&clustersSort, "sort", "", "sort by column title or number")
	clustersCmd.Flags().BoolVar(&clustersDesc, "desc", false, "sort descending")

	statsCmd.Flags().StringVar(&statsDuration, "duration", "", "window length (default stats.default_duration)")
	statsCmd.Flags().StringVar(&statsEnd, "end", "", `window end, "YYYY-MM-DD HH:MM" local time (default now)`)
	statsCmd.ValidArgsFunction = completeMetric
	statsCmd.Flags().IntVar(&statsWidth, "width", 72, "chart width in columns")

	kubeconfigCmd.Flags().StringVarP(&kubeconfigOutput, "output", "o", "", "write to this file instead of kubeconfig_dir")
	kubeconfigCmd.Flags().BoolVar(&kubeconfigMerge, "merge", false, "merge into the -o file (default ~/.kube/config) instead of overwriting it")

	sshCmd.Flags().IntVar(&sshMaster, "master", 0, "master node: 0, 1 or 2")
	sshCmd.Flags().BoolVar(&sshConnect, "connect", false, "open a shell on the node")
	sshCmd.Flags().StringVar(&sshExec, "exec", "", "run a command on the node and exit")
	sshCmd.MarkFlagsMutuallyExclusive("connect", "exec")

	initCmd.Flags().StringVar(&initPortalURL, "portal-url", "", "portal base URL (skips the prompts)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")

	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)

	// Register all commands
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(kubeconfigCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}
