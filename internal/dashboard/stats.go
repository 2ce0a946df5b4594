package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/fetch"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/window"
)

// EndTimeLayout is the format accepted by the end-time editor.
const EndTimeLayout = "2006-01-02 15:04"

const chartHeight = 6

// graph is one chart: its own window and its own fetch state. The tracker
// key is resourceID|window key, so changing either refetches.
type graph struct {
	def     portal.MetricGraph
	win     window.Window
	tracker *fetch.Tracker[[]portal.Metric]
}

// statsTab renders the metric groups. The global window seeds each graph's
// window when the graph is created; after that they move independently
// until SyncAll copies the global window over every graph again.
type statsTab struct {
	portal Portal
	opts   trackerOptions
	now    func() time.Time

	resourceID string
	target     clusterTarget
	global     window.Window
	group      int
	focus      int
	graphs     map[string]*graph

	editing  bool
	input    textinput.Model
	inputErr string
}

func newStatsTab(p Portal, opts trackerOptions, bucket string, now func() time.Time) *statsTab {
	in := textinput.New()
	in.Placeholder = EndTimeLayout
	in.CharLimit = len(EndTimeLayout)
	in.Prompt = "end time: "

	return &statsTab{
		portal: p,
		opts:   opts,
		now:    now,
		global: window.New(bucket, now()),
		graphs: make(map[string]*graph),
		input:  in,
	}
}

func (t *statsTab) ID() TabID { return TabStatistics }

// Global returns the tab-wide window.
func (t *statsTab) Global() window.Window { return t.global }

// Group returns the active metric group.
func (t *statsTab) Group() portal.MetricGroup { return portal.MetricGroups[t.group] }

// Graph returns the state of the chart for metric, creating it from the
// global window on first use.
func (t *statsTab) Graph(metric string) *graph {
	g, ok := t.graphs[metric]
	if ok {
		return g
	}
	def, _ := portal.LookupMetric(metric)
	g = &graph{
		def:     def,
		win:     t.global,
		tracker: newTracker[[]portal.Metric]("stats:"+metric, t.opts),
	}
	t.graphs[metric] = g
	t.rekey(g)
	return g
}

func (t *statsTab) rekey(g *graph) {
	if t.resourceID == "" {
		g.tracker.Reset()
		return
	}
	g.tracker.SetKey(t.resourceID + "|" + g.win.Key())
}

func (t *statsTab) active() []*graph {
	defs := t.Group().Graphs
	out := make([]*graph, len(defs))
	for i, d := range defs {
		out[i] = t.Graph(d.Metric)
	}
	return out
}

func (t *statsTab) focused() *graph {
	gs := t.active()
	if t.focus >= len(gs) {
		t.focus = len(gs) - 1
	}
	return gs[t.focus]
}

func (t *statsTab) SetCluster(c portal.Cluster) {
	t.target = targetOf(c)
	if c.ResourceID == t.resourceID {
		return
	}
	t.resourceID = c.ResourceID
	for _, g := range t.graphs {
		t.rekey(g)
	}
}

// Start fetches every chart of the active group that has not been fetched
// for its current window.
func (t *statsTab) Start(ready bool) tea.Cmd {
	var cmds []tea.Cmd
	for _, g := range t.active() {
		metric, w := g.def.Metric, g.win
		cmds = append(cmds, g.tracker.Start(ready, bind(t.target, func(ctx context.Context, co portal.Coordinate) ([]portal.Metric, error) {
			return t.portal.Statistics(ctx, co, metric, w)
		})))
	}
	return tea.Batch(cmds...)
}

func (t *statsTab) Apply(msg tea.Msg) (bool, error) {
	r, ok := msg.(fetch.ResultMsg[[]portal.Metric])
	if !ok {
		return false, nil
	}
	for _, g := range t.graphs {
		if !g.tracker.Owns(r) {
			continue
		}
		if !g.tracker.Apply(r) {
			return true, nil
		}
		return true, r.Err
	}
	return false, nil
}

func (t *statsTab) Loading() bool {
	for _, g := range t.active() {
		if g.tracker.Loading() {
			return true
		}
	}
	return false
}

func (t *statsTab) ShowError() bool { return t.Err() != nil }

// Err returns the first undismissed chart error of the active group.
func (t *statsTab) Err() error {
	for _, g := range t.active() {
		if g.tracker.ShowError() {
			return g.tracker.Err()
		}
	}
	return nil
}

func (t *statsTab) Dismiss() {
	for _, g := range t.graphs {
		g.tracker.Dismiss()
	}
}

func (t *statsTab) Refresh() {
	for _, g := range t.active() {
		g.tracker.Refresh()
	}
}

// Reset cancels every chart's request and reseeds its window from the
// global one. Trackers are kept so their generations keep counting up and
// a result issued before the reset can't land after it.
func (t *statsTab) Reset() {
	t.resourceID = ""
	t.target = clusterTarget{}
	for _, g := range t.graphs {
		g.tracker.Reset()
		g.win = t.global
	}
	t.focus = 0
	t.editing = false
	t.input.Blur()
}

// SyncAll applies the global window to every chart.
func (t *statsTab) SyncAll() {
	for _, g := range t.graphs {
		g.win = t.global
		t.rekey(g)
	}
}

// Editing reports whether the end-time editor has focus.
func (t *statsTab) Editing() bool { return t.editing }

// SetGlobalEnd parses an EndTimeLayout value in the local zone and moves
// the global end time there.
func (t *statsTab) SetGlobalEnd(value string) error {
	ts, err := time.ParseInLocation(EndTimeLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return errors.New(errors.ErrConfig, "Invalid end time: "+value, "Use the form "+EndTimeLayout+".")
	}
	t.global.End = t.global.End.In(time.Local)
	t.global.SetDate(ts.Year(), ts.Month(), ts.Day())
	t.global.SetClock(ts.Hour(), ts.Minute())
	return nil
}

// shift moves w's end by one window length.
func shift(w *window.Window, dir int) {
	d, err := time.ParseDuration(w.QueryDuration())
	if err != nil {
		return
	}
	w.ShiftEnd(time.Duration(dir) * d)
}

func (t *statsTab) HandleKey(key string) (bool, tea.Cmd) {
	if t.editing {
		return true, nil
	}

	switch key {
	case KeyPrevGroup, KeyPrevGroupH:
		if t.group > 0 {
			t.group--
			t.focus = 0
		}
	case KeyNextGroup, KeyNextGroupL:
		if t.group < len(portal.MetricGroups)-1 {
			t.group++
			t.focus = 0
		}
	case KeyUp, KeyUpK:
		if t.focus > 0 {
			t.focus--
		}
	case KeyDown, KeyDownJ:
		if t.focus < len(t.Group().Graphs)-1 {
			t.focus++
		}
	case KeyWiden:
		g := t.focused()
		g.win.Increase()
		t.rekey(g)
	case KeyNarrow:
		g := t.focused()
		g.win.Decrease()
		t.rekey(g)
	case KeyEarlier, KeyLater:
		g := t.focused()
		dir := -1
		if key == KeyLater {
			dir = 1
		}
		shift(&g.win, dir)
		t.rekey(g)
	case KeyGlobalWiden:
		t.global.Increase()
	case KeyGlobalNarrow:
		t.global.Decrease()
	case KeySyncAll:
		t.SyncAll()
	case KeyEndNow:
		t.global.End = t.now()
	case KeyEditEnd:
		t.editing = true
		t.inputErr = ""
		t.input.SetValue(t.global.End.Local().Format(EndTimeLayout))
		return true, t.input.Focus()
	default:
		return false, nil
	}
	return true, nil
}

// UpdateInput feeds a key to the end-time editor. Enter commits, Esc
// cancels.
func (t *statsTab) UpdateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyOpen:
		if err := t.SetGlobalEnd(t.input.Value()); err != nil {
			t.inputErr = errors.Summary(err)
			return nil
		}
		t.editing = false
		t.input.Blur()
		return nil
	case KeyBack:
		t.editing = false
		t.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

func (t *statsTab) View(width int, spinner string) string {
	var b strings.Builder

	var groups []string
	for i, g := range portal.MetricGroups {
		style := TabStyle
		if i == t.group {
			style = TabActiveStyle
		}
		groups = append(groups, style.Render(g.Title))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, groups...))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("global window: ") + ValueStyle.Render(t.global.String()))
	b.WriteString("\n")
	if t.editing {
		b.WriteString(t.input.View())
		if t.inputErr != "" {
			b.WriteString("  " + lipgloss.NewStyle().Foreground(ColorCritical).Render(t.inputErr))
		}
		b.WriteString("\n")
	}

	for i, g := range t.active() {
		b.WriteString("\n")
		b.WriteString(t.renderGraph(g, i == t.focus, width, spinner))
		b.WriteString("\n")
	}
	return b.String()
}

func (t *statsTab) renderGraph(g *graph, focused bool, width int, spinner string) string {
	status := g.win.String()
	if g.tracker.Loading() {
		status = spinner + " " + status
	}
	title := g.def.Heading
	if focused {
		title = "▸ " + title
	}

	lines := []string{SectionHeader(title, status, width)}
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var body []string
	switch g.tracker.State() {
	case fetch.Error:
		// The error banner carries the message; the chart stays hidden.
		body = []string{MutedStyle.Render("no data")}
	case fetch.Done:
		body = renderSeries(g.tracker.Data(), inner)
	default:
		for i := 0; i < chartHeight; i++ {
			body = append(body, ShimmerStyle.Render(strings.Repeat("░", inner*(3+i%3)/6)))
		}
	}
	for _, l := range body {
		lines = append(lines, SectionContentLine(l, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func renderSeries(metrics []portal.Metric, width int) []string {
	if len(metrics) == 0 {
		return []string{MutedStyle.Render("no series")}
	}
	series := make([][]float64, len(metrics))
	names := make([]string, len(metrics))
	for i, m := range metrics {
		series[i] = m.Values()
		names[i] = m.Name
	}

	minVal, maxVal, ok := seriesRange(series)
	if !ok {
		return []string{MutedStyle.Render("no samples")}
	}

	axis := 8
	chart := RenderLineChart(series, width-axis-1, chartHeight)
	rows := strings.Split(chart, "\n")
	for i := range rows {
		label := ""
		switch i {
		case 0:
			label = FormatValue(maxVal)
		case len(rows) - 1:
			label = FormatValue(minVal)
		}
		rows[i] = MutedStyle.Render(cell(label, axis)) + " " + rows[i]
	}
	return append(rows, RenderLegend(names, width))
}
