package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/doctor"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/ui"
)

type doctorOptions struct {
	ConfigPath string
	Fix        bool

	// SSHConfigPath overrides ~/.ssh/config.
	SSHConfigPath string
}

// DoctorOutput is the --json/--format body of a doctor run.
type DoctorOutput struct {
	Categories []doctor.Section `json:"categories"`
	Summary    doctor.Tally     `json:"summary"`
}

// doctorCommand runs the config checks, then the portal and local checks
// against whatever config loaded. Any failure exits non-zero after the
// report is written.
func doctorCommand(ctx context.Context, w io.Writer, opts doctorOptions) error {
	var report doctor.Report
	checks, schema := doctor.NewConfigChecks(opts.ConfigPath)
	report.Run(ctx, checks...)

	cfg := schema.Config
	kubeDir := config.DefaultConfig().KubeconfigDir
	if cfg != nil {
		kubeDir = cfg.KubeconfigDir
		if a, err := newApp(cfg, logger.Noop()); err == nil {
			report.Run(ctx, doctor.NewSessionChecks(a.client)...)
		}
	}
	local := doctor.NewLocalChecks(kubeDir)
	if opts.SSHConfigPath != "" {
		for _, c := range local {
			if s, ok := c.(*doctor.SSHConfigCheck); ok {
				s.Path = opts.SSHConfigPath
			}
		}
	}
	report.Run(ctx, local...)

	if opts.Fix {
		report.Fix(ctx)
	}

	format := formatTable
	if cfg != nil {
		format = cfg.Output.Format
	}
	format, err := resolveFormat(format)
	if err != nil {
		return err
	}
	out := DoctorOutput{Categories: report.Sections(), Summary: report.Tally()}
	if err := render(w, format, out, func() string {
		return renderDoctor(&report, opts.Fix)
	}); err != nil {
		return err
	}

	if report.Failed() {
		return &exitCodeError{code: 1}
	}
	return nil
}

func renderDoctor(report *doctor.Report, fixed bool) string {
	bold := lipgloss.NewStyle().Bold(true)
	var b strings.Builder

	b.WriteString(bold.Render("portalctl diagnostic report"))
	b.WriteString("\n\n")
	for _, sec := range report.Sections() {
		b.WriteString(bold.Render(sec.Name) + "\n")
		for _, r := range sec.Results {
			writeCheckLine(&b, r)
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("━", 60) + "\n\n")

	tally := report.Tally()
	mark := ui.SuccessStyle().Render(ui.SymbolSuccess)
	if !tally.AllClear {
		mark = ui.ErrorStyle().Render(ui.SymbolFail)
	}
	fmt.Fprintf(&b, "%s %s\n", mark, report.Summary())
	if tally.Fixable > 0 && !fixed {
		fmt.Fprintf(&b, "\n  %s can repair %d of these.\n", ui.MutedStyle().Render("portalctl doctor --fix"), tally.Fixable)
	}
	return b.String()
}

func writeCheckLine(b *strings.Builder, r doctor.CheckResult) {
	mark, style := ui.SymbolComplete, ui.SuccessStyle()
	switch r.Status {
	case doctor.StatusWarn:
		mark, style = ui.SymbolWarning, ui.WarningStyle()
	case doctor.StatusFail:
		mark, style = ui.SymbolFail, ui.ErrorStyle()
	}
	fmt.Fprintf(b, "  %s %s\n", style.Render(mark), r.Message)
	if r.Status == doctor.StatusPass || r.Suggestion == "" {
		return
	}
	for _, line := range strings.Split(r.Suggestion, "\n") {
		fmt.Fprintf(b, "    %s\n", ui.MutedStyle().Render(line))
	}
}
