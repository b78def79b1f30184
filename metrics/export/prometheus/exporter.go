package prometheus

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	goRecover "github.com/MrEthical07/goRecover"
	"github.com/MrEthical07/goRecover/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goRecover.MetricsSnapshot
}

// PrometheusExporter renders client metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter that reads from client.
func NewPrometheusExporter(client *goRecover.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource creates an exporter over any value with
// MetricsSnapshot.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. It returns "" when counters are
// disabled and no event was ever dispatched.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	s := p.source.MetricsSnapshot()
	ev := s.Events
	if len(s.Counters) == 0 && len(s.Histograms) == 0 &&
		ev.Delivered == 0 && len(ev.Dropped) == 0 && len(ev.SinkPanics) == 0 {
		return ""
	}

	w := &textWriter{}
	w.b.Grow(4096)

	if len(s.Counters) > 0 {
		for _, fam := range internaldefs.CounterFamilies {
			w.header(fam.Name, fam.Help, "counter")
			for _, def := range internaldefs.FamilyDefs(fam.Name) {
				w.sample(fam.Name, def.Labels, s.Counters[def.ID])
			}
		}
	}

	if len(s.Histograms) > 0 {
		w.header(internaldefs.LatencyFamily, internaldefs.LatencyHelp, "histogram")
		for _, def := range internaldefs.HistogramDefs {
			w.histogram(def.Op, s.Histograms[def.ID])
		}
	}

	w.header(internaldefs.EventsDeliveredName, internaldefs.EventsDeliveredHelp, "counter")
	w.sample(internaldefs.EventsDeliveredName, nil, ev.Delivered)
	w.byEventType(internaldefs.EventsDroppedName, internaldefs.EventsDroppedHelp, ev.Dropped)
	w.byEventType(internaldefs.EventsSinkPanicsName, internaldefs.EventsSinkPanicsHelp, ev.SinkPanics)

	return w.b.String()
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) header(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escapeHelp(help))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

func (w *textWriter) sample(name string, labels []internaldefs.Label, value uint64) {
	w.b.WriteString(name)
	if len(labels) > 0 {
		w.b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				w.b.WriteByte(',')
			}
			w.b.WriteString(l.Name)
			w.b.WriteString("=\"")
			w.b.WriteString(escapeLabel(l.Value))
			w.b.WriteByte('"')
		}
		w.b.WriteByte('}')
	}
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(value, 10))
	w.b.WriteByte('\n')
}

func (w *textWriter) histogram(op string, raw []uint64) {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	opLabel := internaldefs.Label{Name: internaldefs.OpLabel, Value: op}

	bucket := internaldefs.LatencyFamily + "_bucket"
	for i, le := range internaldefs.HistogramBounds {
		w.sample(bucket, []internaldefs.Label{opLabel, {Name: "le", Value: le}}, cumulative[i])
	}
	w.sample(internaldefs.LatencyFamily+"_count", []internaldefs.Label{opLabel}, cumulative[len(cumulative)-1])
	// Snapshots carry bucket counts only.
	w.sample(internaldefs.LatencyFamily+"_sum", []internaldefs.Label{opLabel}, 0)
}

// byEventType writes one sample per event type. A family with no losses is
// still declared with a single unlabelled zero so scrapes see it.
func (w *textWriter) byEventType(name, help string, counts map[string]uint64) {
	w.header(name, help, "counter")
	if len(counts) == 0 {
		w.sample(name, nil, 0)
		return
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		w.sample(name, []internaldefs.Label{{Name: internaldefs.EventTypeLabel, Value: t}}, counts[t])
	}
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
