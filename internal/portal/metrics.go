package portal

// MetricGraph is one chart of the statistics tab.
type MetricGraph struct {
	Metric  string
	Heading string
}

// MetricGroup is a titled set of charts.
type MetricGroup struct {
	Key    string
	Title  string
	Graphs []MetricGraph
}

// MetricGroups are the statistics sections, in display order.
var MetricGroups = []MetricGroup{
	{
		Key:   "api",
		Title: "API Server",
		Graphs: []MetricGraph{
			{"kubeapicodes", "KubeAPI Server response sizes by code and verb"},
			{"kubeapicpu", "KubeAPI CPU per instance"},
			{"kubeapimemory", "KubeAPI Memory per instance"},
		},
	},
	{
		Key:   "kcm",
		Title: "Kube Controller Manager",
		Graphs: []MetricGraph{
			{"kubecontrollermanagercodes", "Kube Controller Manager Server response sizes by code and verb"},
			{"kubecontrollermanagercpu", "Kube Controller Manager CPU per instance"},
			{"kubecontrollermanagermemory", "Kube Controller Manager Memory per instance"},
		},
	},
	{
		Key:   "dns",
		Title: "DNS",
		Graphs: []MetricGraph{
			{"dnsresponsecodes", "Response Codes"},
			{"dnsalltraffic", "All Traffic"},
			{"dnserrorrate", "Error Rate"},
			{"dnshealthcheck", "Health Check"},
			{"dnsforwardedtraffic", "Forwarded Traffic"},
		},
	},
	{
		Key:   "ingress",
		Title: "Ingress",
		Graphs: []MetricGraph{
			{"ingresscontrollercondition", "Ingress Controller Condition"},
		},
	},
}

// MetricNames lists every known metric.
func MetricNames() []string {
	var out []string
	for _, g := range MetricGroups {
		for _, m := range g.Graphs {
			out = append(out, m.Metric)
		}
	}
	return out
}

// LookupMetric returns the graph definition for metric.
func LookupMetric(metric string) (MetricGraph, bool) {
	for _, g := range MetricGroups {
		for _, m := range g.Graphs {
			if m.Metric == metric {
				return m, true
			}
		}
	}
	return MetricGraph{}, false
}
