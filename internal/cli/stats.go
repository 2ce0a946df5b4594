package cli

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/portalctl/internal/dashboard"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/portal"
	"github.com/rileyhilliard/portalctl/internal/ui"
	"github.com/rileyhilliard/portalctl/internal/window"
	"github.com/spf13/cobra"
)

const statsChartHeight = 8

type statsOptions struct {
	Ref      string
	Metric   string
	Duration string
	End      string
	Width    int

	// now defaults to time.Now.
	now func() time.Time
}

// statsResult is the machine-readable form of one metric fetch.
type statsResult struct {
	ResourceID string          `json:"resourceId"`
	Metric     string          `json:"metric"`
	Duration   string          `json:"duration"`
	End        string          `json:"endtime"`
	Series     []portal.Metric `json:"series"`
}

func statsCommand(ctx context.Context, a *app, w io.Writer, opts statsOptions) error {
	def, ok := portal.LookupMetric(opts.Metric)
	if !ok {
		return errors.New(errors.ErrConfig,
			"Unknown metric '"+opts.Metric+"'",
			"Pick one of: "+strings.Join(portal.MetricNames(), ", "))
	}
	win, err := statsWindow(opts, a.cfg.Stats.DefaultDuration)
	if err != nil {
		return err
	}

	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}
	cluster, err := a.resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}

	co, err := cluster.Locate()
	if err != nil {
		return err
	}

	sp := a.spinner("Fetching " + def.Metric + " for " + win.String())
	sp.Start()
	series, err := a.client.Statistics(ctx, co, def.Metric, win)
	if err := sp.Finish(a.check(err, cluster.ResourceID)); err != nil {
		return err
	}
	if series == nil {
		series = []portal.Metric{}
	}

	result := statsResult{
		ResourceID: cluster.ResourceID,
		Metric:     def.Metric,
		Duration:   win.QueryDuration(),
		End:        win.QueryEnd(),
		Series:     series,
	}
	return render(w, a.format, result, func() string {
		return renderStats(def, win, series, opts.Width)
	})
}

// statsWindow builds the query window from --duration and --end.
func statsWindow(opts statsOptions, defaultBucket string) (window.Window, error) {
	bucket := opts.Duration
	if bucket == "" {
		bucket = defaultBucket
	}
	if !window.IsBucket(bucket) {
		return window.Window{}, errors.New(errors.ErrConfig,
			"'"+bucket+"' isn't a known duration",
			"Pick one of: "+strings.Join(window.BucketNames(), ", "))
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}
	end := now()
	if opts.End != "" {
		t, err := time.ParseInLocation(dashboard.EndTimeLayout, strings.TrimSpace(opts.End), time.Local)
		if err != nil {
			return window.Window{}, errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid end time: "+opts.End,
				"Use the form "+dashboard.EndTimeLayout+".")
		}
		end = t
	}
	return window.New(bucket, end), nil
}

func renderStats(def portal.MetricGraph, win window.Window, series []portal.Metric, width int) string {
	var b strings.Builder
	b.WriteString(ui.LabelStyle().Render(def.Heading))
	b.WriteString("  ")
	b.WriteString(ui.MutedStyle().Render(win.String()))
	b.WriteString("\n\n")

	values := make([][]float64, len(series))
	names := make([]string, len(series))
	for i, m := range series {
		values[i] = m.Values()
		names[i] = m.Name
	}

	chart := dashboard.RenderLineChart(values, width, statsChartHeight)
	if chart == "" {
		b.WriteString(ui.MutedStyle().Render("no samples in this window"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(chart)
	b.WriteString("\n")
	b.WriteString(dashboard.RenderLegend(names, width))
	b.WriteString("\n\n")

	rows := make([][]string, len(series))
	for i, m := range series {
		rows[i] = seriesSummary(m)
	}
	titles := []string{"Series", "Points", "Min", "Max", "Last"}
	b.WriteString(ui.RenderTable(titles, rows, maxColumnWidth))
	b.WriteString("\n")
	return b.String()
}

// seriesSummary is name, point count, min, max and last value. NaN samples
// are skipped.
func seriesSummary(m portal.Metric) []string {
	minVal, maxVal, last := math.Inf(1), math.Inf(-1), math.NaN()
	for _, v := range m.Values() {
		if math.IsNaN(v) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
		last = v
	}
	if math.IsNaN(last) {
		return []string{m.Name, strconv.Itoa(len(m.Points)), "-", "-", "-"}
	}
	return []string{
		m.Name,
		strconv.Itoa(len(m.Points)),
		dashboard.FormatValue(minVal),
		dashboard.FormatValue(maxVal),
		dashboard.FormatValue(last),
	}
}

// completeMetric completes the metric argument of stats.
func completeMetric(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		return portal.MetricNames(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
