package cli

import (
	"context"
	"io"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/dashboard"
	"github.com/rileyhilliard/portalctl/internal/listview"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
	"golang.org/x/sync/errgroup"
)

// clusterDescription is everything the dashboard's detail tabs show,
// except statistics.
type clusterDescription struct {
	Cluster          portal.ClusterDetail     `json:"cluster"`
	Nodes            []portal.Node            `json:"nodes"`
	Machines         []portal.Machine         `json:"machines"`
	MachineSets      []portal.MachineSet      `json:"machineSets"`
	ClusterOperators []portal.ClusterOperator `json:"clusterOperators"`
	Networking       portal.Networking        `json:"networking"`
}

// describeCommand fetches every sub-resource of one cluster concurrently.
// The first failure cancels the rest.
func describeCommand(ctx context.Context, a *app, w io.Writer, ref string) error {
	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}
	cluster, err := a.resolve(ctx, ref)
	if err != nil {
		return err
	}
	co, err := cluster.Locate()
	if err != nil {
		return err
	}

	sp := a.spinner("Fetching " + cluster.Name)
	sp.Start()

	var d clusterDescription
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Cluster, err = a.client.Cluster(gctx, co)
		return err
	})
	g.Go(func() (err error) {
		d.Nodes, err = a.client.Nodes(gctx, co)
		return err
	})
	g.Go(func() (err error) {
		d.Machines, err = a.client.Machines(gctx, co)
		return err
	})
	g.Go(func() (err error) {
		d.MachineSets, err = a.client.MachineSets(gctx, co)
		return err
	})
	g.Go(func() (err error) {
		d.ClusterOperators, err = a.client.ClusterOperators(gctx, co)
		return err
	})
	g.Go(func() (err error) {
		d.Networking, err = a.client.Networking(gctx, co)
		return err
	})
	if err := sp.Finish(a.check(g.Wait(), cluster.ResourceID)); err != nil {
		return err
	}
	a.log.Debug("described %s", cluster.ResourceID)

	return render(w, a.format, d, func() string { return renderDescription(d) })
}

func renderDescription(d clusterDescription) string {
	var b strings.Builder

	pairs := make([]ui.KeyValue, 0, len(d.Cluster.Fields()))
	for _, f := range d.Cluster.Fields() {
		pairs = append(pairs, ui.KeyValue{Key: f.Label, Value: f.Value})
	}
	section(&b, dashboard.TabOverview.Title())
	b.WriteString(ui.RenderKeyValues(pairs, listview.Undefined))

	section(&b, dashboard.TabNodes.Title())
	b.WriteString(describeList(dashboard.NodeColumns(), d.Nodes))
	section(&b, dashboard.TabMachines.Title())
	b.WriteString(describeList(dashboard.MachineColumns(), d.Machines))
	section(&b, dashboard.TabMachineSets.Title())
	b.WriteString(describeList(dashboard.MachineSetColumns(), d.MachineSets))
	section(&b, dashboard.TabOperators.Title())
	b.WriteString(describeList(dashboard.OperatorColumns(), d.ClusterOperators))
	section(&b, dashboard.TabNetworking.Title())
	b.WriteString(describeList(dashboard.NetworkColumns(), dashboard.NetworkRows(d.Networking)))

	return b.String()
}

func section(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(ui.LabelStyle().Render(title))
	b.WriteString("\n")
}

func describeList[T any](cols []listview.Column[T], items []T) string {
	if len(items) == 0 {
		return ui.MutedStyle().Render("none") + "\n"
	}
	l := listview.New(cols, func(T) string { return "" }, func(T) string { return "" })
	l.SetItems(items)
	return renderList(l)
}
