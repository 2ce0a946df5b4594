package dashboard

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/portalctl/internal/fetch"
	"github.com/rileyhilliard/portalctl/internal/listview"
	"github.com/rileyhilliard/portalctl/internal/portal"
)

// TabID identifies a tab of the cluster panel.
type TabID int

const (
	TabOverview TabID = iota
	TabNodes
	TabMachines
	TabMachineSets
	TabOperators
	TabNetworking
	TabStatistics
)

// AllTabs is the tab bar order.
var AllTabs = []TabID{TabOverview, TabNodes, TabMachines, TabMachineSets, TabOperators, TabNetworking, TabStatistics}

// Key is the canonical lower-case name of the tab.
func (t TabID) Key() string {
	switch t {
	case TabOverview:
		return "overview"
	case TabNodes:
		return "nodes"
	case TabMachines:
		return "machines"
	case TabMachineSets:
		return "machinesets"
	case TabOperators:
		return "clusteroperators"
	case TabNetworking:
		return "networking"
	case TabStatistics:
		return "statistics"
	default:
		return "unknown"
	}
}

// Title is the tab bar label.
func (t TabID) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabNodes:
		return "Nodes"
	case TabMachines:
		return "Machines"
	case TabMachineSets:
		return "MachineSets"
	case TabOperators:
		return "ClusterOperators"
	case TabNetworking:
		return "Networking"
	case TabStatistics:
		return "Statistics"
	default:
		return "?"
	}
}

// ParseTab maps a canonical key back to its TabID.
func ParseTab(key string) (TabID, bool) {
	for _, t := range AllTabs {
		if t.Key() == key {
			return t, true
		}
	}
	return 0, false
}

// tab is one pane of the cluster panel. Each tab owns its fetch state and
// only fetches once it has been activated for a cluster.
type tab interface {
	ID() TabID
	// SetCluster points the tab at c. A different resourceId drops any
	// payload the tab holds.
	SetCluster(c portal.Cluster)
	// Start issues the tab's fetch if the guard allows it.
	Start(ready bool) tea.Cmd
	// Apply routes a result message. handled is false for messages the tab
	// did not issue; err is the fetch error of a fresh result.
	Apply(msg tea.Msg) (handled bool, err error)
	Loading() bool
	ShowError() bool
	Err() error
	Dismiss()
	Refresh()
	Reset()
	HandleKey(key string) (bool, tea.Cmd)
	View(width int, spinner string) string
}

// clusterTarget is the coordinate a tab's requests go to, or the reason
// the selected cluster can't be addressed.
type clusterTarget struct {
	co  portal.Coordinate
	err error
}

func targetOf(c portal.Cluster) clusterTarget {
	co, err := c.Locate()
	return clusterTarget{co: co, err: err}
}

// bind captures the target when a request is issued, so the fetch never
// reads tab state off the Update loop.
func bind[T any](at clusterTarget, load func(context.Context, portal.Coordinate) (T, error)) fetch.Func[T] {
	return func(ctx context.Context, _ string) (T, error) {
		if at.err != nil {
			var zero T
			return zero, at.err
		}
		return load(ctx, at.co)
	}
}

// overviewTab shows the cluster detail key/value list.
type overviewTab struct {
	tracker *fetch.Tracker[portal.ClusterDetail]
	load    func(context.Context, portal.Coordinate) (portal.ClusterDetail, error)
	target  clusterTarget
}

func newOverviewTab(p Portal, opts trackerOptions) *overviewTab {
	return &overviewTab{
		tracker: newTracker[portal.ClusterDetail]("overview", opts),
		load:    p.Cluster,
	}
}

func (t *overviewTab) ID() TabID                   { return TabOverview }
func (t *overviewTab) Loading() bool   { return t.tracker.Loading() }
func (t *overviewTab) ShowError() bool { return t.tracker.ShowError() }
func (t *overviewTab) Err() error      { return t.tracker.Err() }
func (t *overviewTab) Dismiss()        { t.tracker.Dismiss() }
func (t *overviewTab) Refresh()        { t.tracker.Refresh() }

func (t *overviewTab) SetCluster(c portal.Cluster) {
	t.target = targetOf(c)
	t.tracker.SetKey(c.ResourceID)
}

func (t *overviewTab) Start(ready bool) tea.Cmd {
	return t.tracker.Start(ready, bind(t.target, t.load))
}

func (t *overviewTab) Reset() {
	t.tracker.Reset()
	t.target = clusterTarget{}
}

func (t *overviewTab) HandleKey(string) (bool, tea.Cmd) { return false, nil }

func (t *overviewTab) Apply(msg tea.Msg) (bool, error) {
	r, ok := msg.(fetch.ResultMsg[portal.ClusterDetail])
	if !ok || !t.tracker.Owns(r) {
		return false, nil
	}
	if !t.tracker.Apply(r) {
		return true, nil
	}
	return true, r.Err
}

func (t *overviewTab) View(width int, spinner string) string {
	if t.tracker.State() != fetch.Done {
		if t.tracker.State() == fetch.Error {
			return ""
		}
		return renderShimmerFields(width)
	}
	return renderFields(t.tracker.Data().Fields(), width)
}

// resourceTab is a sortable list of one kind of cluster sub-resource with
// drill-down into a single row.
type resourceTab[T any] struct {
	id      TabID
	tracker *fetch.Tracker[[]T]
	list    *listview.List[T]
	fields  func(T) []portal.Field
	load    func(context.Context, portal.Coordinate) ([]T, error)
	target  clusterTarget
}

func newResourceTab[T any](id TabID, opts trackerOptions, columns []listview.Column[T], nameOf func(T) string,
	fields func(T) []portal.Field, load func(ctx context.Context, co portal.Coordinate) ([]T, error)) *resourceTab[T] {
	return &resourceTab[T]{
		id:      id,
		tracker: newTracker[[]T](id.Key(), opts),
		list:    listview.New(columns, nameOf, nameOf),
		fields:  fields,
		load:    load,
	}
}

func (t *resourceTab[T]) ID() TabID       { return t.id }
func (t *resourceTab[T]) Loading() bool   { return t.tracker.Loading() }
func (t *resourceTab[T]) ShowError() bool { return t.tracker.ShowError() }
func (t *resourceTab[T]) Err() error      { return t.tracker.Err() }
func (t *resourceTab[T]) Dismiss()        { t.tracker.Dismiss() }

func (t *resourceTab[T]) SetCluster(c portal.Cluster) {
	t.target = targetOf(c)
	if t.tracker.SetKey(c.ResourceID) {
		t.list.Reset()
	}
}

func (t *resourceTab[T]) Start(ready bool) tea.Cmd {
	return t.tracker.Start(ready, bind(t.target, t.load))
}

func (t *resourceTab[T]) Refresh() {
	t.tracker.Refresh()
	t.list.SetItems(nil)
	t.list.CloseDetail()
}

func (t *resourceTab[T]) Reset() {
	t.tracker.Reset()
	t.list.Reset()
	t.target = clusterTarget{}
}

func (t *resourceTab[T]) Apply(msg tea.Msg) (bool, error) {
	r, ok := msg.(fetch.ResultMsg[[]T])
	if !ok || !t.tracker.Owns(r) {
		return false, nil
	}
	if !t.tracker.Apply(r) {
		return true, nil
	}
	if r.Err == nil {
		t.list.SetItems(r.Data)
	}
	return true, r.Err
}

func (t *resourceTab[T]) HandleKey(key string) (bool, tea.Cmd) {
	if t.list.DetailOpen() {
		if key == KeyBack {
			t.list.CloseDetail()
			return true, nil
		}
		return false, nil
	}
	return handleListKey(t.list, key), nil
}

func (t *resourceTab[T]) View(width int, spinner string) string {
	if item, ok := t.list.Detail(); ok {
		return MutedStyle.Render("esc to go back") + "\n\n" + renderFields(t.fields(item), width)
	}
	return renderList(t.list, t.tracker.State(), width)
}

// handleListKey applies navigation, sort and drill-down keys to l.
func handleListKey[T any](l *listview.List[T], key string) bool {
	switch key {
	case KeyUp, KeyUpK:
		l.Up()
	case KeyDown, KeyDownJ:
		l.Down()
	case KeyHome:
		l.First()
	case KeyEnd:
		l.Last()
	case KeyOpen:
		row, ok := l.Current()
		if !ok {
			return true
		}
		l.ToggleDetail(l.NameOf(row))
	default:
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > 9 {
			return false
		}
		l.ToggleSort(n - 1)
	}
	return true
}

// NetworkRow is one flattened entry of the networking response.
type NetworkRow struct {
	Kind    string
	Name    string
	Summary string
	fields  []portal.Field
}

// NetworkRows flattens the networking response into one list, grouped by kind.
func NetworkRows(n portal.Networking) []NetworkRow {
	var rows []NetworkRow
	for _, c := range n.ClusterNetworkList.ClusterNetworks {
		rows = append(rows, NetworkRow{"Cluster Network", c.Name, c.NetworkCIDR, c.Fields()})
	}
	for _, p := range n.VNetPeeringList.VNetPeerings {
		rows = append(rows, NetworkRow{"VNet Peering", p.Name, p.State, p.Fields()})
	}
	for _, s := range n.SubnetList.Subnets {
		rows = append(rows, NetworkRow{"Subnet", s.Name, s.AddressPrefix, s.Fields()})
	}
	for _, p := range n.IngressProfileList.IngressProfiles {
		rows = append(rows, NetworkRow{"Ingress Profile", p.Name, p.IP, p.Fields()})
	}
	return rows
}

// Fields is the detail projection of the underlying entry.
func (r NetworkRow) Fields() []portal.Field { return r.fields }

// Key identifies the row; names are only unique within a kind.
func (r NetworkRow) Key() string { return r.Kind + "/" + r.Name }

func newTabs(p Portal, opts trackerOptions, st *statsTab) []tab {
	return []tab{
		newOverviewTab(p, opts),
		newResourceTab(TabNodes, opts, NodeColumns(),
			func(n portal.Node) string { return n.Name },
			portal.Node.Fields, p.Nodes),
		newResourceTab(TabMachines, opts, MachineColumns(),
			func(m portal.Machine) string { return m.Name },
			portal.Machine.Fields, p.Machines),
		newResourceTab(TabMachineSets, opts, MachineSetColumns(),
			func(s portal.MachineSet) string { return s.Name },
			portal.MachineSet.Fields, p.MachineSets),
		newResourceTab(TabOperators, opts, OperatorColumns(),
			func(o portal.ClusterOperator) string { return o.Name },
			portal.ClusterOperator.Fields, p.ClusterOperators),
		newResourceTab(TabNetworking, opts, NetworkColumns(),
			NetworkRow.Key,
			NetworkRow.Fields,
			func(ctx context.Context, co portal.Coordinate) ([]NetworkRow, error) {
				n, err := p.Networking(ctx, co)
				if err != nil {
					return nil, err
				}
				return NetworkRows(n), nil
			}),
		st,
	}
}

// Column sets for the resource tabs, shared with the describe command.

func NodeColumns() []listview.Column[portal.Node] {
	return []listview.Column[portal.Node]{
		{Title: "Name", Width: 40, Value: func(n portal.Node) string { return n.Name }},
		{Title: "Ready", Width: 8, Value: func(n portal.Node) string { return n.Ready() }},
		{Title: "CPU", Width: 8, Value: func(n portal.Node) string { return n.Capacity.CPU }},
		{Title: "Memory", Width: 14, Value: func(n portal.Node) string { return n.Capacity.Memory }},
		{Title: "Created", Width: 22, Value: func(n portal.Node) string { return n.CreatedTime }},
	}
}

func MachineColumns() []listview.Column[portal.Machine] {
	return []listview.Column[portal.Machine]{
		{Title: "Name", Width: 40, Value: func(m portal.Machine) string { return m.Name }},
		{Title: "Status", Width: 12, Value: func(m portal.Machine) string { return m.Status }},
		{Title: "Last Operation", Width: 20, Value: func(m portal.Machine) string { return m.LastOperation }},
		{Title: "Created", Width: 22, Value: func(m portal.Machine) string { return m.CreatedTime }},
	}
}

func MachineSetColumns() []listview.Column[portal.MachineSet] {
	return []listview.Column[portal.MachineSet]{
		{Title: "Name", Width: 40, Value: func(s portal.MachineSet) string { return s.Name }},
		{Title: "Desired", Width: 8, Value: func(s portal.MachineSet) string { return strconv.Itoa(s.DesiredReplicas) },
			Less: func(a, b portal.MachineSet) bool { return a.DesiredReplicas < b.DesiredReplicas }},
		{Title: "Current", Width: 8, Value: func(s portal.MachineSet) string { return strconv.Itoa(s.Replicas) },
			Less: func(a, b portal.MachineSet) bool { return a.Replicas < b.Replicas }},
		{Title: "VM Size", Width: 18, Value: func(s portal.MachineSet) string { return s.VMSize }},
		{Title: "Created", Width: 22, Value: func(s portal.MachineSet) string { return s.CreatedAt }},
	}
}

func OperatorColumns() []listview.Column[portal.ClusterOperator] {
	return []listview.Column[portal.ClusterOperator]{
		{Title: "Name", Width: 36, Value: func(o portal.ClusterOperator) string { return o.Name }},
		{Title: "Available", Width: 10, Value: func(o portal.ClusterOperator) string { return o.Available }},
		{Title: "Progressing", Width: 12, Value: func(o portal.ClusterOperator) string { return o.Progressing }},
		{Title: "Degraded", Width: 10, Value: func(o portal.ClusterOperator) string { return o.Degraded }},
	}
}

func NetworkColumns() []listview.Column[NetworkRow] {
	return []listview.Column[NetworkRow]{
		{Title: "Kind", Width: 16, Value: func(r NetworkRow) string { return r.Kind }},
		{Title: "Name", Width: 36, Value: func(r NetworkRow) string { return r.Name }},
		{Title: "Summary", Width: 24, Value: func(r NetworkRow) string { return r.Summary }},
	}
}

// renderFields draws a two-column label/value list. Blank values render
// as Undefined.
func renderFields(fields []portal.Field, width int) string {
	labelWidth := 0
	for _, f := range fields {
		if w := lipgloss.Width(f.Label); w > labelWidth {
			labelWidth = w
		}
	}
	valueWidth := width - labelWidth - 3
	if valueWidth < 10 {
		valueWidth = 10
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		label := LabelStyle.Width(labelWidth).Render(f.Label)
		value := listview.OrUndefined(f.Value)
		style := ValueStyle
		if value == listview.Undefined {
			style = MutedStyle
		}
		lines = append(lines, label+"   "+style.Width(valueWidth).Render(value))
	}
	return strings.Join(lines, "\n")
}

func renderShimmerFields(width int) string {
	fractions := []float64{0.5, 0.8, 0.35, 0.65, 0.45, 0.7}
	lines := make([]string, len(fractions))
	for i, f := range fractions {
		n := int(float64(width-16) * f)
		if n < 1 {
			n = 1
		}
		lines[i] = ShimmerStyle.Render(strings.Repeat("░", 12) + "   " + strings.Repeat("░", n))
	}
	return strings.Join(lines, "\n")
}

// renderList draws l as a table with sort indicators, the cursor row
// highlighted, the shimmer while loading and the item count.
func renderList[T any](l *listview.List[T], state fetch.State, width int) string {
	cols := l.Columns()
	widths := fitWidths(cols, width)

	var header []string
	for i, c := range cols {
		title := strconv.Itoa(i+1) + " " + c.Title + l.SortState(i).Indicator()
		header = append(header, TableHeaderStyle.Render(cell(title, widths[i])))
	}

	lines := []string{strings.Join(header, " ")}

	if l.ShowShimmer(state) {
		for _, row := range l.Shimmer() {
			lines = append(lines, ShimmerStyle.Render(joinCells(row, widths)))
		}
		return strings.Join(lines, "\n")
	}

	for i, row := range l.Rows() {
		line := joinCells(row, widths)
		if i == l.Cursor() {
			line = SelectedRowStyle.Render(line)
		} else {
			line = ValueStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", MutedStyle.Render(l.CountLabel()))
	return strings.Join(lines, "\n")
}

// fitWidths shrinks column widths proportionally so the row fits width.
func fitWidths[T any](cols []listview.Column[T], width int) []int {
	total := len(cols) - 1
	for _, c := range cols {
		total += c.Width
	}
	out := make([]int, len(cols))
	for i, c := range cols {
		out[i] = c.Width
		if total > width && width > 0 {
			out[i] = c.Width * width / total
			if out[i] < 4 {
				out[i] = 4
			}
		}
	}
	return out
}

func joinCells(row []string, widths []int) string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = cell(v, widths[i])
	}
	return strings.Join(cells, " ")
}

// cell pads or truncates s to exactly w cells.
func cell(s string, w int) string {
	if lipgloss.Width(s) > w {
		r := []rune(s)
		if w <= 1 {
			return string(r[:w])
		}
		for lipgloss.Width(string(r)) > w-1 {
			r = r[:len(r)-1]
		}
		return string(r) + "…"
	}
	return s + strings.Repeat(" ", w-lipgloss.Width(s))
}
