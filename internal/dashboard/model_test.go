package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/portalctl/internal/fetch"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idOne = "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.RedHatOpenShift/openShiftClusters/one"
	idTwo = "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.RedHatOpenShift/openShiftClusters/two"
)

// fakePortal serves a two-cluster portal and counts requests by path.
// Setting clusters replaces the listing.
type fakePortal struct {
	mu       sync.Mutex
	hits     map[string]int
	status   map[string]int
	clusters []portal.Cluster
	srv      *httptest.Server
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()
	f := &fakePortal{hits: map[string]int{}, status: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePortal) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	code := f.status[r.URL.Path]
	listed := f.clusters
	f.mu.Unlock()

	if code != 0 {
		w.WriteHeader(code)
		return
	}

	var body any
	switch {
	case r.URL.Path == "/api/info":
		body = portal.Info{Location: "eastus", CSRF: "tok", Username: "alice", Elevated: true}
	case r.URL.Path == "/api/clusters" && listed != nil:
		body = listed
	case r.URL.Path == "/api/clusters":
		body = []portal.Cluster{
			{Name: "one", ResourceID: idOne, Version: "4.12.1", ProvisioningState: "Succeeded"},
			{Name: "two", ResourceID: idTwo, Version: "4.9.3", ProvisioningState: "Failed", FailedProvisioningState: "Updating"},
		}
	case r.URL.Path == "/api/sub/rg/one":
		body = portal.ClusterDetail{Name: "one", Version: "4.12.1", Location: "eastus"}
	case r.URL.Path == "/api/x/y/c1":
		body = portal.ClusterDetail{Name: "c1", Version: "4.13.2"}
	case r.URL.Path == "/api/sub/rg/two":
		body = portal.ClusterDetail{Name: "two", Version: "4.9.3"}
	case strings.HasSuffix(r.URL.Path, "/nodes"):
		body = []portal.Node{{Name: "master-0"}, {Name: "worker-a"}}
	case strings.Contains(r.URL.Path, "/statistics/"):
		body = []portal.Metric{{Name: "apiserver-0", Points: []portal.MetricPoint{{Value: 1}, {Value: 3}, {Value: 2}}}}
	case strings.HasSuffix(r.URL.Path, "/ssh/new"):
		body = portal.SSHCredential{Command: "ssh x@y", Password: "secret"}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakePortal) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakePortal) fail(path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = code
}

// blockingPortal holds statistics and kubeconfig calls open until their
// context ends. Each call is announced on started.
type blockingPortal struct {
	Portal
	started chan string
}

func newBlockingPortal() *blockingPortal {
	return &blockingPortal{started: make(chan string, 32)}
}

func (b *blockingPortal) Statistics(ctx context.Context, _ portal.Coordinate, metric string, _ window.Window) ([]portal.Metric, error) {
	b.started <- metric
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingPortal) Kubeconfig(ctx context.Context, _ string) (portal.Kubeconfig, error) {
	b.started <- "kubeconfig"
	<-ctx.Done()
	return portal.Kubeconfig{}, ctx.Err()
}

// runAsync runs cmd, and each command of a batch, on its own goroutine.
func runAsync(cmd tea.Cmd) <-chan tea.Msg {
	out := make(chan tea.Msg, 32)
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					go func(c tea.Cmd) { out <- c() }(c)
				}
			}
			return
		}
		out <- msg
	}()
	return out
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting on channel")
	}
	var zero T
	return zero
}

func newTestModel(t *testing.T, f *fakePortal, deepLink string) (Model, *[]string) {
	t.Helper()
	client, err := portal.New(portal.Options{BaseURL: f.srv.URL, SessionCookie: "s", Logger: logger.Noop()})
	require.NoError(t, err)

	var copied []string
	m := New(Options{
		Portal:          client,
		ResourceID:      deepLink,
		DefaultDuration: "1h",
		KubeconfigDir:   t.TempDir(),
		Logger:          logger.NewBufferLogger(),
		Now:             func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		Clipboard: func(s string) error {
			copied = append(copied, s)
			return nil
		},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return next.(Model), &copied
}

// drain runs cmd and every command it leads to, feeding each message back
// through Update. Spinner ticks are dropped so the loop terminates.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func start(t *testing.T, m Model) Model {
	return drain(t, m, m.Init())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drain(t, next.(Model), cmd)
	}
	return m
}

func TestStartup_LoadsSessionThenClusters(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")

	assert.True(t, m.Clusters().ShowShimmer(m.clusterTracker.State()))

	m = start(t, m)

	assert.True(t, m.ready())
	assert.Equal(t, 1, f.count("/api/info"))
	assert.Equal(t, 1, f.count("/api/clusters"))
	assert.Equal(t, 2, m.Clusters().Count())

	view := m.View()
	assert.Contains(t, view, "eastus")
	assert.Contains(t, view, "ELEVATED")
	assert.Contains(t, view, "Showing 2 items")
	assert.Contains(t, view, "Failed - Updating")
}

func TestSelectCluster_AddressesListedCoordinate(t *testing.T) {
	f := newFakePortal(t)
	f.clusters = []portal.Cluster{{Name: "c1", Subscription: "x", ResourceGroup: "y", ResourceID: "/sub/x/rg/y/c1"}}
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "enter")
	c, open := m.Selected()
	require.True(t, open)
	assert.Equal(t, "/sub/x/rg/y/c1", c.ResourceID)
	assert.Equal(t, 1, f.count("/api/x/y/c1"))
	assert.NoError(t, m.currentTab().Err())
	assert.Contains(t, m.viewport.View(), "4.13.2")

	m = press(t, m, "tab")
	require.Equal(t, TabNodes, m.ActiveTab())
	assert.Equal(t, 1, f.count("/api/x/y/c1/nodes"))
	assert.NoError(t, m.currentTab().Err())
}

func TestKubeconfigDownload_Bounded(t *testing.T) {
	c := portal.Cluster{Name: "one", ResourceID: idOne}

	t.Run("cancelled on quit", func(t *testing.T) {
		p := newBlockingPortal()
		m := New(Options{Portal: p, KubeconfigDir: t.TempDir()})
		results := runAsync(m.kubeconfigCmd(c))
		receive(t, p.started)

		m.quit()
		msg, ok := receive(t, results).(statusMsg)
		require.True(t, ok)
		assert.ErrorIs(t, msg.err, context.Canceled)
	})

	t.Run("request timeout applies", func(t *testing.T) {
		p := newBlockingPortal()
		m := New(Options{Portal: p, KubeconfigDir: t.TempDir(), RequestTimeout: 20 * time.Millisecond})
		msg, ok := receive(t, runAsync(m.kubeconfigCmd(c))).(statusMsg)
		require.True(t, ok)
		assert.ErrorIs(t, msg.err, context.DeadlineExceeded)
		m.quit()
	})
}

func TestClustersWaitForSession(t *testing.T) {
	f := newFakePortal(t)
	f.fail("/api/info", http.StatusInternalServerError)
	m, _ := newTestModel(t, f, "")

	m = start(t, m)

	assert.False(t, m.ready())
	assert.Equal(t, 0, f.count("/api/clusters"))
	assert.Equal(t, fetch.Idle, m.clusterTracker.State())
}

func TestForbidden_QuitsWithLoginURL(t *testing.T) {
	f := newFakePortal(t)
	f.fail("/api/clusters", http.StatusForbidden)
	m, _ := newTestModel(t, f, "")

	m = start(t, m)

	assert.True(t, m.quitting)
	assert.Equal(t, f.srv.URL+"/api/login", m.LoginURL())
	assert.Empty(t, m.View())

	// Nothing is processed after the redirect.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, f.count("/api/clusters"))
	assert.True(t, next.(Model).quitting)
}

func TestForbiddenInTab_RedirectsBackToCluster(t *testing.T) {
	f := newFakePortal(t)
	f.fail("/api/sub/rg/one", http.StatusForbidden)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "enter")

	assert.True(t, m.quitting)
	assert.Contains(t, m.LoginURL(), "redirect_uri=")
}

func TestSelect_LazyTabFetches(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "enter")
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, idOne, sel.ResourceID)
	assert.Equal(t, 1, f.count("/api/sub/rg/one"))
	assert.Equal(t, 0, f.count("/api/sub/rg/one/nodes"))

	m = press(t, m, "tab")
	assert.Equal(t, TabNodes, m.ActiveTab())
	assert.Equal(t, 1, f.count("/api/sub/rg/one/nodes"))

	// Going back does not refetch; sibling data is kept.
	m.SetActiveTab(TabOverview)
	m = drain(t, m, m.ensureFetches())
	m = press(t, m, "tab")
	assert.Equal(t, 1, f.count("/api/sub/rg/one"))
	assert.Equal(t, 1, f.count("/api/sub/rg/one/nodes"))
	assert.Contains(t, m.viewport.View(), "worker-a")
}

func TestClosePanel_ResetsTabs(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "enter", "esc")
	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Equal(t, FocusList, m.focus)
	for _, tb := range m.tabs {
		assert.False(t, tb.ShowError())
		assert.False(t, tb.Loading())
	}

	// Reopening the same cluster fetches again.
	m = press(t, m, "enter")
	assert.Equal(t, 2, f.count("/api/sub/rg/one"))
}

func TestSwitchCluster_ClearsPayload(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)
	m = press(t, m, "enter")
	require.Contains(t, m.viewport.View(), "4.12.1")

	m.selectCluster(m.Clusters().Source()[1])
	ov := m.tabs[TabOverview].(*overviewTab)
	assert.Equal(t, fetch.Idle, ov.tracker.State())
	assert.Empty(t, ov.tracker.Data().Name)

	m = drain(t, m, m.ensureFetches())
	assert.Equal(t, "two", ov.tracker.Data().Name)
}

func TestTabError_DismissDoesNotRetry(t *testing.T) {
	f := newFakePortal(t)
	f.fail("/api/sub/rg/one", http.StatusInternalServerError)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "enter")
	assert.True(t, m.currentTab().ShowError())
	assert.Contains(t, m.View(), "500")

	m = press(t, m, "x")
	assert.False(t, m.currentTab().ShowError())
	assert.Equal(t, 1, f.count("/api/sub/rg/one"))

	m = press(t, m, "r")
	assert.Equal(t, 2, f.count("/api/sub/rg/one"))
}

func TestRefreshList_ShowsShimmer(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	assert.True(t, m.Clusters().ShowShimmer(m.clusterTracker.State()))
	assert.Contains(t, m.View(), "░")
}

func TestFilterBySubstringOfResourceID(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = next.(Model)
	require.Equal(t, FocusFilter, m.focus)

	for _, r := range "TWO" {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	assert.Equal(t, 1, m.Clusters().Count())
	assert.Contains(t, m.View(), "Showing 1 items")
}

func TestSortByColumnKey(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "2")
	assert.Equal(t, "two", m.Clusters().Visible()[0].Name, "4.9 sorts before 4.12")
	m = press(t, m, "2")
	assert.Equal(t, "one", m.Clusters().Visible()[0].Name)
}

func TestDeepLink(t *testing.T) {
	t.Run("known id opens the panel", func(t *testing.T) {
		f := newFakePortal(t)
		m, _ := newTestModel(t, f, strings.ToLower(idTwo))
		m = start(t, m)

		sel, ok := m.Selected()
		require.True(t, ok)
		assert.Equal(t, "two", sel.Name)
		assert.Equal(t, 1, f.count("/api/sub/rg/two"))
	})

	t.Run("unknown id shows the banner", func(t *testing.T) {
		f := newFakePortal(t)
		m, _ := newTestModel(t, f, "/subscriptions/nope")
		m = start(t, m)

		assert.True(t, m.NotFound())
		assert.Contains(t, m.View(), "Resource Not Found")

		m = press(t, m, "x")
		assert.False(t, m.NotFound())
	})
}

func TestCopyActions(t *testing.T) {
	f := newFakePortal(t)
	m, copied := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "c", "P")
	require.Len(t, *copied, 2)
	assert.Equal(t, idOne, (*copied)[0])
	assert.Equal(t, f.srv.URL+idOne+"/prometheus", (*copied)[1])
	assert.Equal(t, "Copied Prometheus URL", m.Status())

	// No console link on this cluster.
	m = press(t, m, "o")
	assert.Len(t, *copied, 2)
	assert.True(t, m.statusErr)
}

func TestSSHModal(t *testing.T) {
	f := newFakePortal(t)
	m, copied := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "S")
	require.True(t, m.ssh.open)
	assert.Contains(t, m.View(), "master-0")

	m = press(t, m, "2", "enter")
	assert.Equal(t, 1, f.count(idOne+"/ssh/new"))
	assert.Contains(t, m.View(), "ssh x@y")

	m = press(t, m, "p")
	assert.Equal(t, []string{"secret"}, *copied)

	// A different master drops the credential.
	m = press(t, m, "1")
	_, ok := m.ssh.credential()
	assert.False(t, ok)

	m = press(t, m, "esc")
	assert.False(t, m.ssh.open)
}

func TestHelpOverlay(t *testing.T) {
	f := newFakePortal(t)
	m, _ := newTestModel(t, f, "")
	m = start(t, m)

	m = press(t, m, "?")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m = press(t, m, "esc")
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestVersionLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"4.9.3", "4.12.1", true},
		{"4.12.1", "4.9.3", false},
		{"4.10", "4.10.1", true},
		{"", "4.1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, versionLess(tt.a, tt.b), "%s < %s", tt.a, tt.b)
	}
}
