package cli

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/dashboard"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/listview"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
)

// maxColumnWidth caps table columns; resource IDs are long.
const maxColumnWidth = 48

type clustersOptions struct {
	Filter string
	Sort   string
	Desc   bool
}

// clustersCommand lists clusters through the same filter and sort rules as
// the dashboard's cluster list.
func clustersCommand(ctx context.Context, a *app, w io.Writer, opts clustersOptions) error {
	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}

	sp := a.spinner("Fetching clusters")
	sp.Start()
	clusters, err := a.client.Clusters(ctx)
	if err := sp.Finish(a.check(err, "")); err != nil {
		return err
	}

	list := dashboard.NewClusterList()
	list.SetItems(clusters)
	list.SetFilter(opts.Filter)
	if opts.Sort != "" {
		col, err := sortColumn(list.Columns(), opts.Sort)
		if err != nil {
			return err
		}
		list.ToggleSort(col)
		if opts.Desc {
			list.ToggleSort(col)
		}
	}

	visible := list.Visible()
	if visible == nil {
		visible = []portal.Cluster{}
	}
	return render(w, a.format, visible, func() string {
		if len(visible) == 0 {
			return ui.MutedStyle().Render("No clusters match.") + "\n"
		}
		return renderList(list) + ui.MutedStyle().Render(list.CountLabel()) + "\n"
	})
}

// renderList draws a list's visible rows as a CLI table.
func renderList[T any](l *listview.List[T]) string {
	cols := l.Columns()
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	rows := l.Rows()
	return ui.RenderTable(titles, rows, maxColumnWidth) + "\n"
}

// sortColumn resolves a --sort value: a 1-based column number, or a
// column title compared case-insensitively with spaces and dashes ignored.
func sortColumn[T any](cols []listview.Column[T], name string) (int, error) {
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= len(cols) {
		return n - 1, nil
	}

	norm := func(s string) string {
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	}
	titles := make([]string, len(cols))
	for i, c := range cols {
		if norm(c.Title) == norm(name) {
			return i, nil
		}
		titles[i] = strings.ToLower(strings.ReplaceAll(c.Title, " ", "-"))
	}
	return 0, errors.New(errors.ErrConfig,
		"Can't sort by '"+name+"'",
		"Sort by one of: "+strings.Join(titles, ", "))
}
