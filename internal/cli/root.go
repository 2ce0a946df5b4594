package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile    string
	noColor    bool
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Terminal console for the ARO admin portal",
	Long: `portalctl talks to the ARO admin portal's REST API.

Run 'portalctl dash' for the interactive dashboard, or use the one-shot
commands (clusters, describe, stats, kubeconfig, ssh) in scripts.

Authentication reuses the portal's browser session: copy the "session"
cookie into session_cookie, or export PORTALCTL_SESSION_COOKIE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || machineMode {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.portalctl.yaml, then ~/.config/portalctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "output format: table, json or yaml (overrides output.format)")
}

// Execute runs the root command and exits non-zero on failure. Ctrl+C
// cancels in-flight portal requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(handleError(os.Stdout, os.Stderr, err))
	}
}

// handleError reports err in the active output mode and returns the exit code.
func handleError(stdout, stderr io.Writer, err error) int {
	var exit *exitCodeError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	if machineMode {
		_ = WriteJSONFromError(stdout, err)
		return 1
	}
	msg := strings.TrimRight(err.Error(), "\n")
	fmt.Fprintln(stderr, ui.ErrorStyle().Render(msg))
	return 1
}
