package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/fetch"
	"github.com/rileyhilliard/portalctl/internal/kubeconfig"
	"github.com/rileyhilliard/portalctl/internal/portal"
)

// Masters is the number of control plane nodes SSH can be requested for.
const Masters = 3

func (m *Model) copyCmd(what, value string) tea.Cmd {
	if strings.TrimSpace(value) == "" {
		return func() tea.Msg {
			return statusMsg{err: errors.New(errors.ErrFetch, "No "+what+" to copy", "")}
		}
	}
	write := m.clipboard
	return func() tea.Msg {
		if err := write(value); err != nil {
			return statusMsg{err: errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't copy "+what+" to the clipboard",
				"A clipboard tool (xclip, xsel or wl-copy) must be installed.")}
		}
		return statusMsg{text: "Copied " + what}
	}
}

// kubeconfigCmd downloads a fresh admin kubeconfig for c and saves it.
func (m *Model) kubeconfigCmd(c portal.Cluster) tea.Cmd {
	p, dir, log := m.portal, m.kubeDir, m.log
	parent, opts := m.actions, m.reqOpts
	m.status = "Downloading kubeconfig for " + c.Name + "..."
	m.statusErr = false

	return func() tea.Msg {
		ctx, cancel := opts.bound(parent)
		defer cancel()
		kc, err := p.Kubeconfig(ctx, c.ResourceID)
		if err != nil {
			return statusMsg{err: err}
		}
		cfg, err := kubeconfig.Parse(kc.Data)
		if err != nil {
			return statusMsg{err: err}
		}
		path, err := kubeconfig.Save(dir, kc.Filename, kc.Data)
		if err != nil {
			return statusMsg{err: err}
		}
		log.Info("saved kubeconfig for %s to %s", c.ResourceID, path)
		return statusMsg{text: fmt.Sprintf("Saved kubeconfig to %s (%s)", path, kubeconfig.Summarize(cfg).Server)}
	}
}

// sshModal is the master picker and the credential it issued.
type sshModal struct {
	open       bool
	resourceID string
	master     int
	tracker    *fetch.Tracker[portal.SSHCredential]
}

func newSSHModal(opts trackerOptions) *sshModal {
	return &sshModal{tracker: newTracker[portal.SSHCredential]("ssh", opts)}
}

func (s *sshModal) openFor(resourceID string) {
	s.open = true
	s.resourceID = resourceID
	s.master = 0
	s.tracker.Reset()
}

func (s *sshModal) close() {
	s.open = false
	s.resourceID = ""
	s.tracker.Reset()
}

func (s *sshModal) move(d int) {
	s.choose(s.master + d)
}

// choose selects master n. A different master drops the shown credential.
func (s *sshModal) choose(n int) {
	if n < 0 || n >= Masters || n == s.master {
		return
	}
	s.master = n
	s.tracker.Reset()
}

// request asks the portal for a credential on the selected master.
func (s *sshModal) request(ready bool, p Portal) tea.Cmd {
	s.tracker.SetKey(s.resourceID + "#" + strconv.Itoa(s.master))
	resourceID, master := s.resourceID, s.master
	return s.tracker.Start(ready, func(ctx context.Context, _ string) (portal.SSHCredential, error) {
		return p.SSH(ctx, resourceID, master)
	})
}

func (s *sshModal) apply(msg fetch.ResultMsg[portal.SSHCredential]) error {
	if !s.tracker.Owns(msg) || !s.tracker.Apply(msg) {
		return nil
	}
	return msg.Err
}

func (s *sshModal) credential() (portal.SSHCredential, bool) {
	if s.tracker.State() != fetch.Done {
		return portal.SSHCredential{}, false
	}
	return s.tracker.Data(), true
}

func (s *sshModal) View(spinner string) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("SSH"))
	b.WriteString("\n\n")

	for i := 0; i < Masters; i++ {
		label := fmt.Sprintf("master-%d", i)
		if i == s.master {
			b.WriteString(TabActiveStyle.Render(label))
		} else {
			b.WriteString(TabStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	switch s.tracker.State() {
	case fetch.Fetching:
		b.WriteString(spinner + " requesting credentials...")
	case fetch.Error:
		if s.tracker.ShowError() {
			b.WriteString(ErrorBannerStyle.Render(errors.Summary(s.tracker.Err())))
		}
	case fetch.Done:
		cred := s.tracker.Data()
		b.WriteString(LabelStyle.Render("Command") + "\n" + ValueStyle.Render(cred.Command) + "\n\n")
		b.WriteString(LabelStyle.Render("Password") + "\n" + ValueStyle.Render(cred.Password) + "\n\n")
		b.WriteString(MutedStyle.Render("c copy command · p copy password"))
	default:
		b.WriteString(MutedStyle.Render("enter to request credentials"))
	}
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("←/→ or 0-2 choose master · esc close"))
	return b.String()
}
