package dashboard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/fetch"
	"github.com/rileyhilliard/portalctl/internal/listview"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/window"
)

// NotFoundMessage is shown when a deep-linked resource ID matches no cluster.
const NotFoundMessage = "No resource found due to Invalid/Non-existent resource ID in the URL."

// Portal is the part of the portal API the dashboard uses.
type Portal interface {
	Info(ctx context.Context) (portal.Info, error)
	Clusters(ctx context.Context) ([]portal.Cluster, error)
	Cluster(ctx context.Context, co portal.Coordinate) (portal.ClusterDetail, error)
	Nodes(ctx context.Context, co portal.Coordinate) ([]portal.Node, error)
	Machines(ctx context.Context, co portal.Coordinate) ([]portal.Machine, error)
	MachineSets(ctx context.Context, co portal.Coordinate) ([]portal.MachineSet, error)
	ClusterOperators(ctx context.Context, co portal.Coordinate) ([]portal.ClusterOperator, error)
	Networking(ctx context.Context, co portal.Coordinate) (portal.Networking, error)
	Statistics(ctx context.Context, co portal.Coordinate, metric string, w window.Window) ([]portal.Metric, error)
	Kubeconfig(ctx context.Context, resourceID string) (portal.Kubeconfig, error)
	SSH(ctx context.Context, resourceID string, master int) (portal.SSHCredential, error)
	LoginURL(redirect string) string
	PrometheusURL(c portal.Cluster) string
}

// Options configures a dashboard Model.
type Options struct {
	Portal Portal

	// ResourceID preselects a cluster once the list has loaded.
	ResourceID string

	// RequestTimeout bounds each fetch. Zero means no timeout.
	RequestTimeout time.Duration

	// DefaultDuration seeds the statistics window.
	DefaultDuration string

	// KubeconfigDir is where downloaded kubeconfigs are saved.
	KubeconfigDir string

	Logger    logger.Logger
	Now       func() time.Time
	Clipboard func(string) error
}

type trackerOptions struct {
	timeout time.Duration
}

// bound derives a request context under parent with the same timeout a
// tracker applies to its fetches.
func (o trackerOptions) bound(parent context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(parent, o.timeout)
	}
	return context.WithCancel(parent)
}

func newTracker[T any](name string, opts trackerOptions) *fetch.Tracker[T] {
	return fetch.New[T](name).WithTimeout(opts.timeout)
}

// statusMsg reports the outcome of a one-off action in the footer.
type statusMsg struct {
	text string
	err  error
}

// Model is the dashboard state. All mutation happens in Update.
type Model struct {
	portal    Portal
	log       logger.Logger
	clipboard func(string) error
	kubeDir   string

	// actions parents one-off requests such as kubeconfig downloads.
	reqOpts     trackerOptions
	actions     context.Context
	stopActions context.CancelFunc

	width, height int

	session        *fetch.Tracker[portal.Info]
	clusterTracker *fetch.Tracker[[]portal.Cluster]
	clusters       *listview.List[portal.Cluster]
	filter         textinput.Model
	focus          Focus
	deepLink       string
	notFound       bool

	selected  portal.Cluster
	activeTab TabID
	tabs      []tab
	stats     *statsTab
	ssh       *sshModal

	spinner  spinner.Model
	viewport viewport.Model
	showHelp bool

	status    string
	statusErr bool

	loginURL string
	quitting bool
}

// New creates the dashboard model.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	topts := trackerOptions{timeout: opts.RequestTimeout}
	stats := newStatsTab(opts.Portal, topts, opts.DefaultDuration, now)

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter by resource ID"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = MutedStyle

	actions, stopActions := context.WithCancel(context.Background())
	m := Model{
		portal:         opts.Portal,
		log:            log,
		clipboard:      clip,
		kubeDir:        opts.KubeconfigDir,
		reqOpts:        topts,
		actions:        actions,
		stopActions:    stopActions,
		session:        newTracker[portal.Info]("session", topts),
		clusterTracker: newTracker[[]portal.Cluster]("clusters", topts),
		clusters:       NewClusterList(),
		filter:         filter,
		deepLink:       opts.ResourceID,
		tabs:           newTabs(opts.Portal, topts, stats),
		stats:          stats,
		ssh:            newSSHModal(topts),
		spinner:        sp,
		viewport:       viewport.New(80, 20),
	}
	m.session.SetKey("session")
	m.clusterTracker.SetKey("clusters")
	return m
}

// NewClusterList builds the cluster list: filtered and keyed on resourceId.
// The clusters command sorts with the same columns.
func NewClusterList() *listview.List[portal.Cluster] {
	byID := func(c portal.Cluster) string { return c.ResourceID }
	return listview.New(clusterColumns(), byID, byID)
}

func clusterColumns() []listview.Column[portal.Cluster] {
	return []listview.Column[portal.Cluster]{
		{Title: "Name", Width: 28, Value: func(c portal.Cluster) string { return c.Name }},
		{Title: "Version", Width: 10, Value: func(c portal.Cluster) string { return c.Version },
			Less: func(a, b portal.Cluster) bool { return versionLess(a.Version, b.Version) }},
		{Title: "State", Width: 22, Value: portal.Cluster.State},
		{Title: "Subscription", Width: 36, Value: func(c portal.Cluster) string { return c.Subscription }},
		{Title: "Resource Group", Width: 24, Value: func(c portal.Cluster) string { return c.ResourceGroup }},
		{Title: "Created", Width: 20, Value: func(c portal.Cluster) string { return c.CreatedAt }},
	}
}

// versionLess orders dotted versions numerically where it can.
func versionLess(a, b string) bool {
	pa, pb := splitVersion(a), splitVersion(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

func splitVersion(v string) []int {
	var out []int
	for _, part := range strings.Split(v, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// Init starts the session bootstrap and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ensureFetches(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if m.quitting {
			return m, cmd
		}
		if handled {
			cmds = append(cmds, cmd)
		} else if m.focus == FocusPanel {
			var vcmd tea.Cmd
			m.viewport, vcmd = m.viewport.Update(msg)
			cmds = append(cmds, vcmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width
		m.viewport.Height = m.bodyHeight()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case statusMsg:
		if msg.err != nil {
			if errors.IsAuth(msg.err) {
				return m, m.authFailed()
			}
			m.status = errors.Summary(msg.err)
			m.statusErr = true
		} else {
			m.status = msg.text
			m.statusErr = false
		}

	case fetch.ResultMsg[portal.Info]:
		if m.session.Owns(msg) && m.session.Apply(msg) && msg.Err != nil {
			if errors.IsAuth(msg.Err) {
				return m, m.authFailed()
			}
			m.log.Warn("session bootstrap failed: %v", msg.Err)
		}

	case fetch.ResultMsg[[]portal.Cluster]:
		if m.clusterTracker.Owns(msg) && m.clusterTracker.Apply(msg) {
			if msg.Err != nil {
				if errors.IsAuth(msg.Err) {
					return m, m.authFailed()
				}
				break
			}
			m.clusters.SetItems(msg.Data)
			m.resolveDeepLink()
		}

	case fetch.ResultMsg[portal.SSHCredential]:
		if err := m.ssh.apply(msg); err != nil && errors.IsAuth(err) {
			return m, m.authFailed()
		}

	default:
		for _, t := range m.tabs {
			handled, err := t.Apply(msg)
			if !handled {
				continue
			}
			if err != nil {
				if errors.IsAuth(err) {
					return m, m.authFailed()
				}
				m.log.Warn("%s fetch failed: %v", t.ID().Key(), err)
			}
			break
		}
	}

	cmds = append(cmds, m.ensureFetches())
	m.syncViewport()
	return m, tea.Batch(cmds...)
}

// ensureFetches starts whatever the current view needs. Each tracker's guard
// makes repeated calls free.
func (m *Model) ensureFetches() tea.Cmd {
	cmds := []tea.Cmd{
		m.session.Start(true, func(ctx context.Context, _ string) (portal.Info, error) {
			return m.portal.Info(ctx)
		}),
		m.clusterTracker.Start(m.ready(), func(ctx context.Context, _ string) ([]portal.Cluster, error) {
			return m.portal.Clusters(ctx)
		}),
	}
	if m.panelOpen() {
		t := m.currentTab()
		t.SetCluster(m.selected)
		cmds = append(cmds, t.Start(m.ready()))
	}
	return tea.Batch(cmds...)
}

// ready is the session-ready input of every fetch guard.
func (m Model) ready() bool {
	return m.session.State() == fetch.Done
}

func (m *Model) resolveDeepLink() {
	if m.deepLink == "" {
		return
	}
	ref := m.deepLink
	m.deepLink = ""

	c, err := portal.FindCluster(m.clusters.Source(), ref)
	if err != nil {
		m.notFound = true
		m.log.Info("deep link %q: %v", ref, err)
		return
	}
	m.clusters.SelectName(c.ResourceID)
	m.selectCluster(c)
}

// selectCluster opens the panel on c. A different cluster clears every tab
// so nothing from the previous selection is shown.
func (m *Model) selectCluster(c portal.Cluster) {
	if c.ResourceID == "" {
		return
	}
	if c.ResourceID != m.selected.ResourceID {
		for _, t := range m.tabs {
			t.SetCluster(c)
		}
		m.activeTab = TabOverview
	}
	m.selected = c
	m.focus = FocusPanel
	m.viewport.GotoTop()
}

// closePanel clears the selection and resets every tab.
func (m *Model) closePanel() {
	m.selected = portal.Cluster{}
	for _, t := range m.tabs {
		t.Reset()
	}
	m.activeTab = TabOverview
	m.focus = FocusList
}

func (m Model) panelOpen() bool {
	return m.selected.ResourceID != ""
}

func (m Model) currentTab() tab {
	return m.tabs[m.activeTab]
}

// target is the cluster actions apply to: the open one, or the highlighted
// list row.
func (m Model) target() (portal.Cluster, bool) {
	if m.panelOpen() {
		return m.selected, true
	}
	return m.clusters.Current()
}

func (m *Model) refresh() {
	if m.session.State() == fetch.Error {
		m.session.Refresh()
	}
	if m.panelOpen() {
		m.currentTab().Refresh()
		return
	}
	m.clusterTracker.Refresh()
	m.clusters.SetItems(nil)
	m.notFound = false
}

// dismiss hides the banner for the current view.
func (m *Model) dismiss() {
	switch {
	case m.notFound:
		m.notFound = false
	case m.panelOpen():
		m.currentTab().Dismiss()
	default:
		m.clusterTracker.Dismiss()
	}
	m.status = ""
}

// authFailed records where to log in and quits. Nothing else is processed.
func (m *Model) authFailed() tea.Cmd {
	m.loginURL = m.portal.LoginURL(m.selected.ResourceID)
	return m.quit()
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.stopActions()
	m.session.Cancel()
	m.clusterTracker.Cancel()
	for _, t := range m.tabs {
		t.Reset()
	}
	m.ssh.close()
	return tea.Quit
}

// LoginURL is set when the dashboard quit because the session expired.
func (m Model) LoginURL() string { return m.loginURL }

// Selected returns the cluster the panel is open on.
func (m Model) Selected() (portal.Cluster, bool) {
	return m.selected, m.panelOpen()
}

// ActiveTab returns the panel tab currently shown.
func (m Model) ActiveTab() TabID { return m.activeTab }

// SetActiveTab switches the panel to id.
func (m *Model) SetActiveTab(id TabID) { m.activeTab = id }

// Clusters exposes the cluster list state.
func (m Model) Clusters() *listview.List[portal.Cluster] { return m.clusters }

// NotFound reports whether the deep-link banner is showing.
func (m Model) NotFound() bool { return m.notFound }

// Status is the footer message of the last action.
func (m Model) Status() string { return m.status }

func (m Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) syncViewport() {
	if !m.panelOpen() {
		return
	}
	m.viewport.SetContent(m.currentTab().View(m.viewport.Width-2, m.spinner.View()))
}
