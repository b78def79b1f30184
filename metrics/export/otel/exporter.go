package otel

import (
	"context"
	"errors"
	"fmt"

	goRecover "github.com/MrEthical07/goRecover"
	"github.com/MrEthical07/goRecover/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goRecover.MetricsSnapshot
}

// labelledCounter is one CounterDef bound to its family's instrument.
type labelledCounter struct {
	id         goRecover.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.ObserveOption
}

type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters       []labelledCounter
	latencyBuckets metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
	delivered      metric.Int64ObservableCounter
	dropped        metric.Int64ObservableCounter
	sinkPanics     metric.Int64ObservableCounter
}

// NewOTelExporter registers one observable instrument per metric family on
// meter. Values are read from client on each collection.
func NewOTelExporter(meter metric.Meter, client *goRecover.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]labelledCounter, 0, len(internaldefs.CounterDefs)),
	}
	observables := make([]metric.Observable, 0, len(internaldefs.CounterFamilies)+5)

	for _, fam := range internaldefs.CounterFamilies {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", fam.Name, err)
		}
		observables = append(observables, ins)
		for _, def := range internaldefs.FamilyDefs(fam.Name) {
			exporter.counters = append(exporter.counters, labelledCounter{
				id:         def.ID,
				instrument: ins,
				attrs:      metric.WithAttributes(attributes(def.Labels)...),
			})
		}
	}

	var err error
	if exporter.latencyBuckets, err = meter.Int64ObservableGauge(
		internaldefs.LatencyFamily+"_bucket",
		metric.WithDescription("Cumulative call latency bucket count, by operation and upper bound."),
	); err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	if exporter.latencyCount, err = meter.Int64ObservableGauge(
		internaldefs.LatencyFamily+"_count",
		metric.WithDescription(internaldefs.LatencyHelp),
	); err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	if exporter.delivered, err = meter.Int64ObservableCounter(
		internaldefs.EventsDeliveredName,
		metric.WithDescription(internaldefs.EventsDeliveredHelp),
	); err != nil {
		return nil, fmt.Errorf("create events delivered counter: %w", err)
	}
	if exporter.dropped, err = meter.Int64ObservableCounter(
		internaldefs.EventsDroppedName,
		metric.WithDescription(internaldefs.EventsDroppedHelp),
	); err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	if exporter.sinkPanics, err = meter.Int64ObservableCounter(
		internaldefs.EventsSinkPanicsName,
		metric.WithDescription(internaldefs.EventsSinkPanicsHelp),
	); err != nil {
		return nil, fmt.Errorf("create events sink panics counter: %w", err)
	}
	observables = append(observables,
		exporter.latencyBuckets, exporter.latencyCount,
		exporter.delivered, exporter.dropped, exporter.sinkPanics,
	)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	s := e.source.MetricsSnapshot()

	if len(s.Counters) > 0 {
		for _, c := range e.counters {
			observer.ObserveInt64(c.instrument, int64(s.Counters[c.id]), c.attrs)
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := s.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		op := attribute.String(internaldefs.OpLabel, def.Op)
		for i, le := range internaldefs.HistogramBounds {
			observer.ObserveInt64(e.latencyBuckets, int64(cumulative[i]),
				metric.WithAttributes(op, attribute.String("le", le)))
		}
		observer.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]), metric.WithAttributes(op))
	}

	observer.ObserveInt64(e.delivered, int64(s.Events.Delivered))
	observeByEventType(observer, e.dropped, s.Events.Dropped)
	observeByEventType(observer, e.sinkPanics, s.Events.SinkPanics)
	return nil
}

func observeByEventType(observer metric.Observer, ins metric.Int64ObservableCounter, counts map[string]uint64) {
	for eventType, n := range counts {
		observer.ObserveInt64(ins, int64(n),
			metric.WithAttributes(attribute.String(internaldefs.EventTypeLabel, eventType)))
	}
}

func attributes(labels []internaldefs.Label) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for _, l := range labels {
		kvs = append(kvs, attribute.String(l.Name, l.Value))
	}
	return kvs
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
