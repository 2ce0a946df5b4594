package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped by main from its ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the portalctl release, the commit it was built from and the
Go toolchain. Honors --json and --format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return versionCommand(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the release")
}

// buildInfo is what `portalctl version` reports.
type buildInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// currentBuild fills in the commit from the module's VCS stamp when the
// binary was built without ldflags (plain `go install`).
func currentBuild() buildInfo {
	b := buildInfo{
		Version:  displayVersion(version),
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Commit != "none" {
		return b
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Commit = s.Value
			case "vcs.time":
				b.Built = s.Value
			}
		}
	}
	return b
}

func versionCommand(w io.Writer, short bool) error {
	b := currentBuild()
	if short {
		_, err := fmt.Fprintln(w, b.Version)
		return err
	}
	format, err := resolveFormat("")
	if err != nil {
		return err
	}
	return render(w, format, b, func() string {
		return fmt.Sprintf("portalctl %s\ncommit:   %s\nbuilt:    %s\ngo:       %s\nplatform: %s\n",
			b.Version, b.Commit, b.Built, b.Go, b.Platform)
	})
}

// displayVersion tags release numbers with a leading v. Dev builds and
// empty strings pass through.
func displayVersion(v string) string {
	switch {
	case v == "" || v == "dev":
		return v
	case v[0] == 'v':
		return v
	}
	return "v" + v
}

// SetVersionInfo records the ldflags values main was built with.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}
